// Package report folds period records into dashboard summaries and
// chronologically sorted series. It never fails: a malformed row
// contributes zeros, so a dashboard degrades instead of erroring out.
package report

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/money"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Row is one period record (an agent's month) as the aggregator sees it.
type Row struct {
	AgentID    snowflake.ID `json:"agent_id"`
	Year       int          `json:"year"`
	Month      int          `json:"month"`
	Calculated float64      `json:"calculated"`
	Paid       float64      `json:"paid"`
}

// Pending is the row's unpaid remainder, floored at zero.
func (r Row) Pending() float64 {
	p := money.Sum(r.Calculated, -r.Paid)
	if p < 0 {
		return 0
	}
	return p
}

type Summary struct {
	TotalCalculated float64 `json:"total_calculated"`
	TotalPaid       float64 `json:"total_paid"`
	TotalPending    float64 `json:"total_pending"`
}

// Summarize sums calculated, paid and pending over the rows. Empty
// input yields the zero summary.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.TotalCalculated = money.Sum(s.TotalCalculated, r.Calculated)
		s.TotalPaid = money.Sum(s.TotalPaid, r.Paid)
		s.TotalPending = money.Sum(s.TotalPending, r.Pending())
	}
	return s
}

// SortByPeriod returns a copy of rows stably sorted by (year, month).
// Stability keeps same-month duplicates from reordering between renders.
func SortByPeriod(rows []Row, order Order) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order == OrderDesc {
			a, b = b, a
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out
}

// TopN returns the n rows with the largest key, ties keeping their
// original order. n <= 0 yields an empty slice.
func TopN(rows []Row, n int, key func(Row) float64) []Row {
	if n <= 0 {
		return []Row{}
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return money.Norm(key(out[i])) > money.Norm(key(out[j]))
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
