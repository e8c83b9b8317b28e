// Package settlement tracks partial payments against a target amount.
// It is deliberately storage-agnostic: callers pass the calculated
// amount and the payment amounts they hold, and get back derived
// paid/pending figures and a tri-state status. The overpay check here is
// advisory; the authoritative check runs inside the payout transaction.
package settlement

import (
	"errors"

	"github.com/finovia/adfin/internal/money"
)

var (
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrExceedsPending = errors.New("exceeds_pending")
)

type State string

const (
	StatePending          State = "pending"
	StatePartiallySettled State = "partially_settled"
	StateSettled          State = "settled"
)

// Status is the derived settlement position of a record.
type Status struct {
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
	State         State   `json:"state"`
}

// Derive computes paid/pending/state from the calculated target and the
// amounts paid so far. Malformed amounts count as zero.
func Derive(calculatedAmount float64, paid []float64) Status {
	calculatedAmount = money.Round2(calculatedAmount)
	paidTotal := money.Sum(paid...)

	pending := money.Sum(calculatedAmount, -paidTotal)
	if pending < 0 {
		pending = 0
	}

	state := StatePending
	switch {
	case pending == 0:
		state = StateSettled
	case paidTotal > 0:
		state = StatePartiallySettled
	}

	return Status{
		PaidAmount:    paidTotal,
		PendingAmount: pending,
		State:         state,
	}
}

// Validate checks a new payment against the current pending amount.
func Validate(amount, pendingAmount float64) error {
	amount = money.Norm(amount)
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if money.Round2(amount) > money.Round2(pendingAmount) {
		return ErrExceedsPending
	}
	return nil
}

// ProgressRatio reports settled progress in [0,1] for progress bars.
func ProgressRatio(calculatedAmount float64, paid []float64) float64 {
	calculatedAmount = money.Norm(calculatedAmount)
	if calculatedAmount <= 0 {
		return 0
	}
	ratio := money.Sum(paid...) / calculatedAmount
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
