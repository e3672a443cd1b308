package disbursement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainwage/payroll-api/internal/chain"
	"github.com/chainwage/payroll-api/internal/config"
	"github.com/chainwage/payroll-api/internal/domain"
	"github.com/chainwage/payroll-api/internal/logging"
)

type contractGateway interface {
	BalanceOf(ctx context.Context, employer string) (*big.Int, error)
	Disburse(ctx context.Context, employer string, workers []string, amounts []*big.Int, total *big.Int) (string, error)
	WaitMined(ctx context.Context, txHash string) (*chain.Receipt, error)
}

type Service struct {
	contract contractGateway
	config   *config.Config
	locks    *employerLocks
}

func NewService(contract contractGateway, cfg *config.Config) *Service {
	return &Service{
		contract: contract,
		config:   cfg,
		locks:    newEmployerLocks(),
	}
}

// Disburse validates the batch, checks the employer's pre-funded contract
// balance, submits one transaction paying every worker, and blocks until
// the transaction is confirmed.
//
// An insufficient balance is reported through *domain.InsufficientBalanceError
// and never reaches the contract's pay entry point. The balance check,
// submission, and confirmation wait run under a per-employer lock.
func (s *Service) Disburse(ctx context.Context, req domain.DisbursementRequest) (*domain.DisbursementResult, error) {
	log := logging.FromContext(ctx)

	if err := s.validate(req); err != nil {
		return nil, fmt.Errorf("Disburse: %w", err)
	}

	total := req.TotalAmount()

	release := s.locks.acquire(req.Employer)
	defer release()

	available, err := s.contract.BalanceOf(ctx, req.Employer)
	if err != nil {
		return nil, fmt.Errorf("Disburse: balance check: %w: %v", domain.ErrLedger, err)
	}

	if available.Cmp(total) < 0 {
		log.Warn("disbursement rejected, insufficient balance",
			"employer", req.Employer,
			"requested", total.String(),
			"available", available.String(),
		)
		return nil, fmt.Errorf("Disburse: %w", &domain.InsufficientBalanceError{
			Employer:  req.Employer,
			Requested: total,
			Available: available,
		})
	}

	txHash, err := s.contract.Disburse(ctx, req.Employer, req.Recipients(), req.ScaledAmounts(), total)
	if err != nil {
		return nil, fmt.Errorf("Disburse: submit: %w: %v", domain.ErrLedger, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.ConfirmationTimeoutS)*time.Second)
	defer cancel()

	receipt, err := s.contract.WaitMined(waitCtx, txHash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("Disburse: tx %s: %w", txHash, domain.ErrConfirmationTimeout)
		}
		return nil, fmt.Errorf("Disburse: confirmation: %w: %v", domain.ErrLedger, err)
	}

	log.Info("disbursement confirmed",
		"employer", req.Employer,
		"tx_hash", receipt.TransactionHash,
		"workers", len(req.Items),
		"total_base_units", total.String(),
	)

	return &domain.DisbursementResult{
		TxHash:    receipt.TransactionHash,
		Timestamp: time.Now().UTC(),
		GasUsed:   s.config.GasLimit,
	}, nil
}

// validate fails fast with no side effects: nothing here touches the
// network. A missing signing credential is a configuration failure,
// distinct from bad client input.
func (s *Service) validate(req domain.DisbursementRequest) error {
	if s.config.SignerKey == "" || s.config.SignerAddress == "" {
		return fmt.Errorf("validate: %w", domain.ErrSignerMissing)
	}

	if req.Employer == "" {
		return fmt.Errorf("validate: employer required: %w", domain.ErrInvalidRequest)
	}
	if !chain.IsHexAddress(req.Employer) {
		return fmt.Errorf("validate: employer: %w", domain.ErrInvalidAddress)
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("validate: empty payment batch: %w", domain.ErrInvalidRequest)
	}

	for i, item := range req.Items {
		if !chain.IsHexAddress(item.Recipient) {
			return fmt.Errorf("validate: item %d: %w", i, domain.ErrInvalidAddress)
		}
		if !item.Amount.IsPositive() {
			return fmt.Errorf("validate: item %d: %w", i, domain.ErrInvalidAmount)
		}
	}

	return nil
}
