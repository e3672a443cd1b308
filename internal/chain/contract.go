package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/chainwage/payroll-api/internal/logging"
)

type rpcCaller interface {
	Call(ctx context.Context, method string, params any, out any) error
}

// ContractConfig fixes the submission parameters. Gas ceiling and price
// are configuration constants, not derived from network conditions.
type ContractConfig struct {
	Address      string
	Signer       string
	GasLimit     uint64
	GasPriceWei  *big.Int
	PollInterval time.Duration
}

// PayrollContract is the gateway to the deployed payroll contract.
// Constructed once at process start and shared by all requests; the
// underlying RPC client is safe for concurrent use.
type PayrollContract struct {
	rpc rpcCaller
	cfg ContractConfig
}

func NewPayrollContract(rpc rpcCaller, cfg ContractConfig) *PayrollContract {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	return &PayrollContract{rpc: rpc, cfg: cfg}
}

type callParams struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Data     string `json:"data"`
}

// Receipt is the subset of the transaction receipt the service needs.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Status          string `json:"status"`
	GasUsed         string `json:"gasUsed"`
}

// Reverted reports whether the transaction was included but failed.
func (r *Receipt) Reverted() bool {
	return r.Status == "0x0"
}

// BalanceOf reads the employer's available balance in base units via the
// contract's view function. The result reflects ledger state at query
// time only.
func (p *PayrollContract) BalanceOf(ctx context.Context, employer string) (*big.Int, error) {
	data, err := encodeBalanceOf(employer)
	if err != nil {
		return nil, fmt.Errorf("BalanceOf: %w", err)
	}

	var result string
	params := []any{callParams{To: p.cfg.Address, Data: data}, "latest"}
	if err := p.rpc.Call(ctx, "eth_call", params, &result); err != nil {
		return nil, fmt.Errorf("BalanceOf: %w", err)
	}

	balance, err := DecodeBig(result)
	if err != nil {
		return nil, fmt.Errorf("BalanceOf: %w", err)
	}
	return balance, nil
}

// Disburse submits a single transaction paying all workers atomically.
// Returns the transaction hash; confirmation is a separate step.
func (p *PayrollContract) Disburse(ctx context.Context, employer string, workers []string, amounts []*big.Int, total *big.Int) (string, error) {
	data, err := encodeDisburse(employer, workers, amounts, total)
	if err != nil {
		return "", fmt.Errorf("Disburse: %w", err)
	}

	params := []any{callParams{
		From:     p.cfg.Signer,
		To:       p.cfg.Address,
		Gas:      EncodeUint64(p.cfg.GasLimit),
		GasPrice: EncodeBig(p.cfg.GasPriceWei),
		Data:     data,
	}}

	var txHash string
	if err := p.rpc.Call(ctx, "eth_sendTransaction", params, &txHash); err != nil {
		return "", fmt.Errorf("Disburse: %w", err)
	}

	logging.FromContext(ctx).Info("disbursement transaction submitted",
		"tx_hash", txHash,
		"employer", employer,
		"workers", len(workers),
	)
	return txHash, nil
}

// WaitMined polls for the transaction receipt until the transaction is
// included in a block or ctx expires. A reverted receipt is an error.
func (p *PayrollContract) WaitMined(ctx context.Context, txHash string) (*Receipt, error) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		var receipt *Receipt
		if err := p.rpc.Call(ctx, "eth_getTransactionReceipt", []any{txHash}, &receipt); err != nil {
			return nil, fmt.Errorf("WaitMined: %w", err)
		}

		if receipt != nil && receipt.BlockNumber != "" {
			if receipt.Reverted() {
				return nil, fmt.Errorf("WaitMined: transaction %s reverted", txHash)
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("WaitMined: %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}
