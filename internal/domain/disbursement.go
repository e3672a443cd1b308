package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// StablecoinDecimals is the number of decimal places between the display
// amount and the token's smallest integer unit (1 unit = 10^-6 tokens).
const StablecoinDecimals = 6

// PaymentLineItem is one worker payment within a batch. Amount is the
// human-readable token amount (whole units with fractional cents).
type PaymentLineItem struct {
	Recipient string
	Amount    decimal.Decimal
}

// DisbursementRequest is a batch of worker payments funded by a single
// employer account. Items are ordered; order is preserved all the way
// into the contract call.
type DisbursementRequest struct {
	Employer string
	Items    []PaymentLineItem
}

// TotalAmount sums the original decimal amounts first and scales the sum
// once. Summing pre-scaled integers instead can differ by rounding at the
// boundary; the contract expects this exact policy.
func (r DisbursementRequest) TotalAmount() *big.Int {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Amount)
	}
	return ScaleToBaseUnits(total)
}

// ScaledAmounts returns each line-item amount in base units, in request order.
func (r DisbursementRequest) ScaledAmounts() []*big.Int {
	amounts := make([]*big.Int, len(r.Items))
	for i, item := range r.Items {
		amounts[i] = ScaleToBaseUnits(item.Amount)
	}
	return amounts
}

// Recipients returns the recipient addresses in request order.
func (r DisbursementRequest) Recipients() []string {
	addrs := make([]string, len(r.Items))
	for i, item := range r.Items {
		addrs[i] = item.Recipient
	}
	return addrs
}

// ScaleToBaseUnits converts a display amount to the token's smallest
// integer unit, truncating anything beyond six decimal places.
func ScaleToBaseUnits(d decimal.Decimal) *big.Int {
	return d.Shift(StablecoinDecimals).BigInt()
}

// BalanceSnapshot is the employer's pre-funded contract balance read at
// request time. Never cached; it may be stale by submission time, which is
// why submissions are serialized per employer.
type BalanceSnapshot struct {
	Employer  string
	Available *big.Int
}

// DisbursementResult is the confirmed-success outcome.
//
// GasUsed reports the configured gas ceiling, not the gas the transaction
// actually consumed. Downstream clients rely on this field name and value;
// keep it until they are updated together.
type DisbursementResult struct {
	TxHash    string
	Timestamp time.Time
	GasUsed   uint64
}
