package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/finovia/adfin/internal/commission/domain"
	"github.com/finovia/adfin/internal/principal"
	"github.com/finovia/adfin/internal/settlement"
)

type upsertCommissionRequest struct {
	AgentID    string  `json:"agent_id"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	Platform   string  `json:"platform"`
	BaseAmount float64 `json:"base_amount"`
}

func (s *Server) UpsertCommissionPeriod(c *gin.Context) {
	var req upsertCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	agentID, err := parseOptionalSnowflakeID(req.AgentID)
	if err != nil || agentID == nil {
		AbortWithError(c, newValidationError("agent_id", "invalid_id", "invalid identifier"))
		return
	}

	record, err := s.commissionSvc.UpsertPeriod(c.Request.Context(), commissiondomain.UpsertPeriodInput{
		AgentID:    *agentID,
		Month:      req.Month,
		Year:       req.Year,
		Platform:   req.Platform,
		BaseAmount: req.BaseAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordFeeComputation(c.Request.Context(), record.Platform, "commission_record")
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

func (s *Server) commissionFilter(c *gin.Context) (commissiondomain.ListFilter, error) {
	p, _ := principal.FromContext(c.Request.Context())

	var filter commissiondomain.ListFilter
	if p.Role == principal.RoleAdmin {
		agentID, err := parseOptionalSnowflakeID(c.Query("agent_id"))
		if err != nil {
			return filter, newValidationError("agent_id", "invalid_id", "invalid identifier")
		}
		filter.AgentID = agentID
	} else {
		agentID := p.UserID
		filter.AgentID = &agentID
	}

	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		return filter, newValidationError("year", "invalid_year", "invalid value")
	}
	filter.Year = year
	return filter, nil
}

func (s *Server) ListCommissions(c *gin.Context) {
	filter, err := s.commissionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.commissionSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) GetCommissionStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status, err := s.commissionSvc.Status(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	if p.Role != principal.RoleAdmin && status.Record.AgentID != p.UserID {
		AbortWithError(c, ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, status)
}

type payCommissionRequest struct {
	Amount  float64 `json:"amount"`
	Remarks string  `json:"remarks"`
}

func (s *Server) PayCommission(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req payCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	status, err := s.commissionSvc.Pay(c.Request.Context(), commissiondomain.PayInput{
		RecordID: id,
		Amount:   req.Amount,
		Remarks:  req.Remarks,
		PaidBy:   p.UserID,
	})
	if err != nil {
		if s.obsMetrics != nil && (errors.Is(err, settlement.ErrExceedsPending) || errors.Is(err, settlement.ErrInvalidAmount)) {
			s.obsMetrics.RecordPaymentRejection(c.Request.Context(), err.Error())
		}
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCommissionPayment(c.Request.Context(), string(status.Settlement.State))
	}
	c.JSON(http.StatusCreated, status)
}
