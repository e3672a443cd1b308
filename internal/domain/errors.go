package domain

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidAddress      = errors.New("malformed account address")
	ErrInsufficientBalance = errors.New("insufficient employer balance")
	ErrSignerMissing       = errors.New("signing credential not configured")
	ErrLedger              = errors.New("ledger interaction failed")
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")
)

// InsufficientBalanceError carries the balance report for the alternate
// success outcome: the caller gets the report, no transaction is sent.
type InsufficientBalanceError struct {
	Employer  string
	Requested *big.Int
	Available *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient employer balance: requested %s, available %s", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
