// Package money holds the fixed-point arithmetic helpers every monetary
// derivation in the service routes through. Amounts are float64 at the
// edges but all intermediate math runs on shopspring decimals so display
// values and stored values never pick up binary-float drift.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Norm maps NaN and infinities to zero. Missing numeric fields coming in
// from clients or older rows degrade to zero instead of poisoning a sum.
func Norm(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(x float64) float64 {
	x = Norm(x)
	v, _ := decimal.NewFromFloat(x).Round(2).Float64()
	if v == 0 {
		return 0
	}
	return v
}

// PercentOf returns base*percent/100 rounded to two decimal places.
// Percent values outside [0,100] are accepted; legacy penalty rates can
// legitimately exceed 100 and clamping is the caller's policy call.
func PercentOf(base, percent float64) float64 {
	b := decimal.NewFromFloat(Norm(base))
	p := decimal.NewFromFloat(Norm(percent))
	v, _ := b.Mul(p).Div(decimal.NewFromInt(100)).Round(2).Float64()
	if v == 0 {
		return 0
	}
	return v
}

// Sum adds the given amounts and rounds once at the end.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(Norm(a)))
	}
	v, _ := total.Round(2).Float64()
	if v == 0 {
		return 0
	}
	return v
}
