package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/finovia/adfin/internal/report"
)

func (s *Server) GetCommissionSummary(c *gin.Context) {
	filter, err := s.commissionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows, err := s.commissionSvc.Rows(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": report.Summarize(rows)})
}

func (s *Server) GetCommissionMonthly(c *gin.Context) {
	filter, err := s.commissionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order := report.OrderAsc
	if strings.EqualFold(strings.TrimSpace(c.Query("order")), string(report.OrderDesc)) {
		order = report.OrderDesc
	}

	rows, err := s.commissionSvc.Rows(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": report.SortByPeriod(rows, order)})
}

func (s *Server) GetTopAgents(c *gin.Context) {
	filter, err := s.commissionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	n := 10
	if parsed, err := parseOptionalInt(c.Query("n")); err != nil {
		AbortWithError(c, newValidationError("n", "invalid_limit", "invalid value"))
		return
	} else if parsed != nil {
		n = *parsed
	}

	key := func(r report.Row) float64 { return r.Pending() }
	switch strings.ToLower(strings.TrimSpace(c.Query("by"))) {
	case "paid":
		key = func(r report.Row) float64 { return r.Paid }
	case "calculated":
		key = func(r report.Row) float64 { return r.Calculated }
	case "", "pending":
	default:
		AbortWithError(c, newValidationError("by", "invalid_sort_key", "invalid value"))
		return
	}

	rows, err := s.commissionSvc.Rows(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": report.TopN(rows, n, key)})
}
