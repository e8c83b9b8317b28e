package settlement

import (
	"math"
	"testing"
)

func TestDerivePartiallySettled(t *testing.T) {
	st := Derive(500, []float64{200, 150})
	if st.PaidAmount != 350 {
		t.Fatalf("paid = %v, want 350", st.PaidAmount)
	}
	if st.PendingAmount != 150 {
		t.Fatalf("pending = %v, want 150", st.PendingAmount)
	}
	if st.State != StatePartiallySettled {
		t.Fatalf("state = %q, want %q", st.State, StatePartiallySettled)
	}
}

func TestDeriveStates(t *testing.T) {
	if st := Derive(500, nil); st.State != StatePending {
		t.Fatalf("no payments: state = %q, want pending", st.State)
	}
	if st := Derive(500, []float64{500}); st.State != StateSettled {
		t.Fatalf("fully paid: state = %q, want settled", st.State)
	}
	// Zero-target records are settled by definition.
	if st := Derive(0, nil); st.State != StateSettled {
		t.Fatalf("zero target: state = %q, want settled", st.State)
	}
}

func TestDerivePendingNeverNegative(t *testing.T) {
	st := Derive(100, []float64{80, 80})
	if st.PendingAmount != 0 {
		t.Fatalf("pending = %v, want 0", st.PendingAmount)
	}
}

func TestDeriveMalformedAmountsAreZero(t *testing.T) {
	st := Derive(500, []float64{200, math.NaN(), 150})
	if st.PaidAmount != 350 {
		t.Fatalf("paid = %v, want 350", st.PaidAmount)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(150, 150); err != nil {
		t.Fatalf("exact pending should pass: %v", err)
	}
	if err := Validate(200, 150); err != ErrExceedsPending {
		t.Fatalf("overpay: got %v, want ErrExceedsPending", err)
	}
	if err := Validate(0, 150); err != ErrInvalidAmount {
		t.Fatalf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if err := Validate(-5, 150); err != ErrInvalidAmount {
		t.Fatalf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if err := Validate(math.NaN(), 150); err != ErrInvalidAmount {
		t.Fatalf("NaN amount: got %v, want ErrInvalidAmount", err)
	}
}

func TestValidateSequenceKeepsPendingNonNegative(t *testing.T) {
	calculated := 500.0
	var paid []float64
	for _, amount := range []float64{200, 150, 200, 150} {
		st := Derive(calculated, paid)
		if err := Validate(amount, st.PendingAmount); err != nil {
			continue
		}
		paid = append(paid, amount)
	}
	st := Derive(calculated, paid)
	if st.PendingAmount < 0 {
		t.Fatalf("pending went negative: %v", st.PendingAmount)
	}
	if st.PaidAmount > calculated {
		t.Fatalf("paid %v exceeds calculated %v", st.PaidAmount, calculated)
	}
}

func TestProgressRatio(t *testing.T) {
	if r := ProgressRatio(500, []float64{250}); r != 0.5 {
		t.Fatalf("ratio = %v, want 0.5", r)
	}
	if r := ProgressRatio(0, []float64{250}); r != 0 {
		t.Fatalf("zero target ratio = %v, want 0", r)
	}
	if r := ProgressRatio(100, []float64{500}); r != 1 {
		t.Fatalf("overpaid ratio = %v, want 1", r)
	}
	if r := ProgressRatio(100, nil); r != 0 {
		t.Fatalf("unpaid ratio = %v, want 0", r)
	}
}
