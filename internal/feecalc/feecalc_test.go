package feecalc

import (
	"math"
	"testing"

	"github.com/finovia/adfin/internal/money"
)

func TestComputeSimple(t *testing.T) {
	b, err := ComputeSimple(1000, 12.5)
	if err != nil {
		t.Fatalf("compute simple: %v", err)
	}
	if b.Fee != 125.00 || b.Total != 1125.00 {
		t.Fatalf("got fee=%v total=%v, want fee=125 total=1125", b.Fee, b.Total)
	}
}

func TestComputeSimpleRejectsNegativeBase(t *testing.T) {
	if _, err := ComputeSimple(-1, 10); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestComputeSimpleNaNRateIsZeroFee(t *testing.T) {
	b, err := ComputeSimple(500, math.NaN())
	if err != nil {
		t.Fatalf("compute simple: %v", err)
	}
	if b.Fee != 0 || b.Total != 500 {
		t.Fatalf("got fee=%v total=%v, want fee=0 total=500", b.Fee, b.Total)
	}
}

func TestComputeWithFlatFee(t *testing.T) {
	b, err := ComputeWithFlatFee(300, 20, 10)
	if err != nil {
		t.Fatalf("compute with flat fee: %v", err)
	}
	if b.Fee != 30.00 {
		t.Fatalf("got fee=%v, want 30", b.Fee)
	}
	if b.Total != 350.00 {
		t.Fatalf("got total=%v, want 350", b.Total)
	}
}

func TestFlatFeeNotInPercentBase(t *testing.T) {
	// Percentage applies to the deposit only, so a large flat fee must
	// not change the percentage fee.
	small, _ := ComputeWithFlatFee(100, 1, 10)
	big, _ := ComputeWithFlatFee(100, 9999, 10)
	if small.Fee != big.Fee {
		t.Fatalf("flat fee leaked into percent base: %v != %v", small.Fee, big.Fee)
	}
}

func TestDeriveRate(t *testing.T) {
	rate := DeriveRate(200, 25)
	if rate != 12.5 {
		t.Fatalf("DeriveRate(200, 25) = %v, want 12.5", rate)
	}

	// Editing the base and recomputing with the derived rate keeps the
	// original pricing behaviour.
	b, err := ComputeSimple(400, rate)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if b.Fee != 50.00 || b.Total != 450.00 {
		t.Fatalf("got fee=%v total=%v, want fee=50 total=450", b.Fee, b.Total)
	}
}

func TestDeriveRateZeroBase(t *testing.T) {
	if rate := DeriveRate(0, 25); rate != 0 {
		t.Fatalf("DeriveRate(0, 25) = %v, want 0", rate)
	}
	if rate := DeriveRate(-10, 25); rate != 0 {
		t.Fatalf("DeriveRate(-10, 25) = %v, want 0", rate)
	}
}

func TestDeriveRateRoundTrip(t *testing.T) {
	cases := []struct {
		base float64
		rate float64
	}{
		{1000, 12.5},
		{300, 10},
		{250, 7.25},
		{83.50, 5},
	}
	for _, tc := range cases {
		fee := money.PercentOf(tc.base, tc.rate)
		back := money.PercentOf(tc.base, DeriveRate(tc.base, fee))
		if diff := math.Abs(back - fee); diff > 0.01 {
			t.Fatalf("round trip base=%v rate=%v: fee %v came back as %v", tc.base, tc.rate, fee, back)
		}
	}
}
