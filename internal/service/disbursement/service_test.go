package disbursement

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainwage/payroll-api/internal/chain"
	"github.com/chainwage/payroll-api/internal/config"
	"github.com/chainwage/payroll-api/internal/domain"
)

const (
	employerAddr = "0xAA00000000000000000000000000000000000001"
	workerB      = "0xBB00000000000000000000000000000000000002"
	workerC      = "0xCC00000000000000000000000000000000000003"
)

type mockContract struct {
	mu sync.Mutex

	balance    *big.Int
	balanceErr error

	txHash      string
	disburseErr error
	waitErr     error
	receipt     *chain.Receipt

	balanceCalls  int
	disburseCalls int
	waitCalls     int

	gotWorkers []string
	gotAmounts []*big.Int
	gotTotal   *big.Int
}

func (m *mockContract) BalanceOf(_ context.Context, _ string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceCalls++
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return m.balance, nil
}

func (m *mockContract) Disburse(_ context.Context, _ string, workers []string, amounts []*big.Int, total *big.Int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disburseCalls++
	m.gotWorkers = workers
	m.gotAmounts = amounts
	m.gotTotal = total
	if m.disburseErr != nil {
		return "", m.disburseErr
	}
	return m.txHash, nil
}

func (m *mockContract) WaitMined(_ context.Context, txHash string) (*chain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitCalls++
	if m.waitErr != nil {
		return nil, m.waitErr
	}
	if m.receipt != nil {
		return m.receipt, nil
	}
	return &chain.Receipt{TransactionHash: txHash, BlockNumber: "0x10", Status: "0x1"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		SignerKey:            "test-signer-key",
		SignerAddress:        "0xDD00000000000000000000000000000000000004",
		GasLimit:             3_000_000,
		GasPriceWei:          20_000_000_000,
		ConfirmationTimeoutS: 5,
	}
}

func validRequest() domain.DisbursementRequest {
	return domain.DisbursementRequest{
		Employer: employerAddr,
		Items: []domain.PaymentLineItem{
			{Recipient: workerB, Amount: decimal.RequireFromString("100.50")},
			{Recipient: workerC, Amount: decimal.RequireFromString("49.5")},
		},
	}
}

func TestDisburseValidationFailsBeforeAnyLedgerCall(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config, *domain.DisbursementRequest)
		wantErr error
	}{
		{
			name:    "missing employer",
			mutate:  func(_ *config.Config, r *domain.DisbursementRequest) { r.Employer = "" },
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "malformed employer address",
			mutate:  func(_ *config.Config, r *domain.DisbursementRequest) { r.Employer = "0x1234" },
			wantErr: domain.ErrInvalidAddress,
		},
		{
			name:    "empty batch",
			mutate:  func(_ *config.Config, r *domain.DisbursementRequest) { r.Items = nil },
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "malformed recipient",
			mutate: func(_ *config.Config, r *domain.DisbursementRequest) {
				r.Items[1].Recipient = "not-an-address"
			},
			wantErr: domain.ErrInvalidAddress,
		},
		{
			name: "zero amount",
			mutate: func(_ *config.Config, r *domain.DisbursementRequest) {
				r.Items[0].Amount = decimal.Zero
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			mutate: func(_ *config.Config, r *domain.DisbursementRequest) {
				r.Items[0].Amount = decimal.RequireFromString("-1")
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "missing signer key",
			mutate:  func(c *config.Config, _ *domain.DisbursementRequest) { c.SignerKey = "" },
			wantErr: domain.ErrSignerMissing,
		},
		{
			name:    "missing signer address",
			mutate:  func(c *config.Config, _ *domain.DisbursementRequest) { c.SignerAddress = "" },
			wantErr: domain.ErrSignerMissing,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			req := validRequest()
			tc.mutate(cfg, &req)

			contract := &mockContract{balance: big.NewInt(1_000_000_000)}
			svc := NewService(contract, cfg)

			_, err := svc.Disburse(context.Background(), req)
			require.ErrorIs(t, err, tc.wantErr)

			assert.Zero(t, contract.balanceCalls, "validation must not touch the ledger")
			assert.Zero(t, contract.disburseCalls)
		})
	}
}

func TestDisburseInsufficientBalance(t *testing.T) {
	contract := &mockContract{balance: big.NewInt(100_000_000)}
	svc := NewService(contract, testConfig())

	_, err := svc.Disburse(context.Background(), validRequest())

	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.Equal(t, employerAddr, insufficient.Employer)
	assert.Equal(t, "150000000", insufficient.Requested.String())
	assert.Equal(t, "100000000", insufficient.Available.String())

	assert.Equal(t, 1, contract.balanceCalls)
	assert.Zero(t, contract.disburseCalls, "no submission on insufficient balance")
}

func TestDisburseSuccess(t *testing.T) {
	contract := &mockContract{
		balance: big.NewInt(200_000_000),
		txHash:  "0xfeed",
	}
	svc := NewService(contract, testConfig())

	result, err := svc.Disburse(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, contract.disburseCalls, "exactly one submission attempt")
	assert.Equal(t, 1, contract.waitCalls)

	assert.Equal(t, "0xfeed", result.TxHash)
	assert.False(t, result.Timestamp.IsZero())
	assert.Equal(t, uint64(3_000_000), result.GasUsed, "reports the configured gas ceiling")

	assert.Equal(t, []string{workerB, workerC}, contract.gotWorkers)
	require.Len(t, contract.gotAmounts, 2)
	assert.Equal(t, "100500000", contract.gotAmounts[0].String())
	assert.Equal(t, "49500000", contract.gotAmounts[1].String())
	assert.Equal(t, "150000000", contract.gotTotal.String())
}

func TestDisburseExactBalancePasses(t *testing.T) {
	contract := &mockContract{balance: big.NewInt(150_000_000), txHash: "0x1"}
	svc := NewService(contract, testConfig())

	_, err := svc.Disburse(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, contract.disburseCalls)
}

func TestDisburseLedgerFailures(t *testing.T) {
	tests := []struct {
		name     string
		contract *mockContract
		wantErr  error
	}{
		{
			name:     "balance check fails",
			contract: &mockContract{balanceErr: fmt.Errorf("connection refused")},
			wantErr:  domain.ErrLedger,
		},
		{
			name:     "submission rejected",
			contract: &mockContract{balance: big.NewInt(200_000_000), disburseErr: fmt.Errorf("execution reverted")},
			wantErr:  domain.ErrLedger,
		},
		{
			name: "confirmation times out",
			contract: &mockContract{
				balance: big.NewInt(200_000_000),
				txHash:  "0x2",
				waitErr: fmt.Errorf("WaitMined: %w", context.DeadlineExceeded),
			},
			wantErr: domain.ErrConfirmationTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.contract, testConfig())
			_, err := svc.Disburse(context.Background(), validRequest())
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// blockingContract parks the first caller inside the balance check so a
// second request for the same employer can only proceed if the
// per-employer lock fails to serialize them.
type blockingContract struct {
	mockContract
	entered     chan struct{}
	release     chan struct{}
	inFlight    int
	maxInFlight int
}

func (b *blockingContract) BalanceOf(ctx context.Context, employer string) (*big.Int, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.maxInFlight {
		b.maxInFlight = b.inFlight
	}
	b.mu.Unlock()

	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()

	return b.mockContract.BalanceOf(ctx, employer)
}

func TestDisburseSerializesPerEmployer(t *testing.T) {
	contract := &blockingContract{
		mockContract: mockContract{balance: big.NewInt(1_000_000_000), txHash: "0x3"},
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := NewService(contract, testConfig())

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Disburse(context.Background(), validRequest())
			assert.NoError(t, err)
		}()
	}

	<-contract.entered
	close(contract.release)
	wg.Wait()

	assert.Equal(t, 1, contract.maxInFlight, "same-employer batches must not overlap")
	assert.Equal(t, 2, contract.disburseCalls)
}
