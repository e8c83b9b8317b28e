package report

import (
	"math"
	"testing"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalCalculated != 0 || s.TotalPaid != 0 || s.TotalPending != 0 {
		t.Fatalf("empty summary not zero: %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Year: 2026, Month: 1, Calculated: 500, Paid: 350},
		{Year: 2026, Month: 2, Calculated: 300, Paid: 300},
		{Year: 2026, Month: 3, Calculated: 200, Paid: 0},
	}
	s := Summarize(rows)
	if s.TotalCalculated != 1000 {
		t.Fatalf("calculated = %v, want 1000", s.TotalCalculated)
	}
	if s.TotalPaid != 650 {
		t.Fatalf("paid = %v, want 650", s.TotalPaid)
	}
	if s.TotalPending != 350 {
		t.Fatalf("pending = %v, want 350", s.TotalPending)
	}
}

func TestSummarizePartitionAdditivity(t *testing.T) {
	a := []Row{{Calculated: 120.10, Paid: 20.05}, {Calculated: 80, Paid: 80}}
	b := []Row{{Calculated: 33.33, Paid: 3.30}}

	whole := Summarize(append(append([]Row{}, a...), b...))
	sa, sb := Summarize(a), Summarize(b)

	if whole.TotalCalculated != sa.TotalCalculated+sb.TotalCalculated {
		t.Fatalf("calculated not additive")
	}
	if whole.TotalPaid != sa.TotalPaid+sb.TotalPaid {
		t.Fatalf("paid not additive")
	}
	if whole.TotalPending != sa.TotalPending+sb.TotalPending {
		t.Fatalf("pending not additive")
	}
}

func TestSummarizeMalformedRowsAreZero(t *testing.T) {
	rows := []Row{
		{Calculated: math.NaN(), Paid: math.Inf(1)},
		{Calculated: 100, Paid: 40},
	}
	s := Summarize(rows)
	if s.TotalCalculated != 100 || s.TotalPaid != 40 || s.TotalPending != 60 {
		t.Fatalf("malformed rows leaked into summary: %+v", s)
	}
}

func TestPendingNeverNegative(t *testing.T) {
	r := Row{Calculated: 100, Paid: 250}
	if r.Pending() != 0 {
		t.Fatalf("pending = %v, want 0", r.Pending())
	}
}

func TestSortByPeriod(t *testing.T) {
	rows := []Row{
		{Year: 2026, Month: 3, Calculated: 1},
		{Year: 2025, Month: 12, Calculated: 2},
		{Year: 2026, Month: 1, Calculated: 3},
	}
	asc := SortByPeriod(rows, OrderAsc)
	if asc[0].Year != 2025 || asc[1].Month != 1 || asc[2].Month != 3 {
		t.Fatalf("asc order wrong: %+v", asc)
	}
	desc := SortByPeriod(rows, OrderDesc)
	if desc[0].Month != 3 || desc[2].Year != 2025 {
		t.Fatalf("desc order wrong: %+v", desc)
	}
	// input untouched
	if rows[0].Month != 3 {
		t.Fatalf("SortByPeriod mutated its input")
	}
}

func TestSortByPeriodStable(t *testing.T) {
	rows := []Row{
		{Year: 2026, Month: 1, Calculated: 1},
		{Year: 2026, Month: 1, Calculated: 2},
		{Year: 2026, Month: 1, Calculated: 3},
	}
	sorted := SortByPeriod(rows, OrderAsc)
	for i, r := range sorted {
		if r.Calculated != float64(i+1) {
			t.Fatalf("same-month rows reordered: %+v", sorted)
		}
	}
}

func TestTopN(t *testing.T) {
	rows := []Row{
		{Month: 1, Calculated: 100},
		{Month: 2, Calculated: 300},
		{Month: 3, Calculated: 200},
		{Month: 4, Calculated: 300},
	}
	key := func(r Row) float64 { return r.Calculated }

	top := TopN(rows, 2, key)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	// Ties keep original order: month 2 before month 4.
	if top[0].Month != 2 || top[1].Month != 4 {
		t.Fatalf("tie order wrong: %+v", top)
	}

	if got := TopN(rows, 0, key); len(got) != 0 {
		t.Fatalf("n=0 should be empty, got %+v", got)
	}
	if got := TopN(rows, -1, key); len(got) != 0 {
		t.Fatalf("n<0 should be empty, got %+v", got)
	}
	if got := TopN(rows, 10, key); len(got) != len(rows) {
		t.Fatalf("n beyond len should return all rows, got %d", len(got))
	}
}
