// Package feecalc derives fees and totals from a base amount and a
// commission rate. Every record freezes the rate it was priced with, so
// edits after the fact go through DeriveRate instead of re-reading the
// live fee rule.
package feecalc

import (
	"errors"
	"math"

	"github.com/finovia/adfin/internal/money"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// Breakdown is the priced output for a single record.
type Breakdown struct {
	Fee   float64 `json:"fee"`
	Total float64 `json:"total"`
}

// ComputeSimple prices a base amount against a percentage rate.
// A NaN or missing rate degrades to zero fee rather than blocking the
// submission; absent fee-rule data must not stop a preview.
func ComputeSimple(baseAmount, commissionPercent float64) (Breakdown, error) {
	if baseAmount < 0 {
		return Breakdown{}, ErrInvalidAmount
	}
	if math.IsNaN(commissionPercent) {
		commissionPercent = 0
	}
	fee := money.PercentOf(baseAmount, commissionPercent)
	return Breakdown{
		Fee:   fee,
		Total: money.Sum(baseAmount, fee),
	}, nil
}

// ComputeWithFlatFee prices a base amount with a flat charge added on
// top. The percentage fee is computed on the base alone, never on the
// flat fee.
func ComputeWithFlatFee(baseAmount, flatFee, commissionPercent float64) (Breakdown, error) {
	if baseAmount < 0 || flatFee < 0 {
		return Breakdown{}, ErrInvalidAmount
	}
	if math.IsNaN(commissionPercent) {
		commissionPercent = 0
	}
	fee := money.PercentOf(baseAmount, commissionPercent)
	return Breakdown{
		Fee:   fee,
		Total: money.Sum(baseAmount, flatFee, fee),
	}, nil
}

// DeriveRate recovers the percentage rate implied by a previously
// computed fee. Used when an admin edits a record's base amount and the
// originally applied rate must be preserved instead of the current rule.
func DeriveRate(baseAmount, previousFee float64) float64 {
	baseAmount = money.Norm(baseAmount)
	if baseAmount <= 0 {
		return 0
	}
	return money.Norm(previousFee) / baseAmount * 100
}
