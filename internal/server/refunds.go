package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/finovia/adfin/internal/principal"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
)

type createRefundRequest struct {
	AdAccountID     string  `json:"ad_account_id"`
	Platform        string  `json:"platform"`
	RequestedAmount float64 `json:"requested_amount"`
	Reason          string  `json:"reason"`
}

func (s *Server) CreateRefund(c *gin.Context) {
	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := parseOptionalSnowflakeID(req.AdAccountID)
	if err != nil || accountID == nil {
		AbortWithError(c, newValidationError("ad_account_id", "invalid_id", "invalid identifier"))
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	refund, err := s.refundSvc.Create(c.Request.Context(), refunddomain.CreateInput{
		UserID:          p.UserID,
		AdAccountID:     *accountID,
		Platform:        req.Platform,
		RequestedAmount: req.RequestedAmount,
		Reason:          req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordRefundRequest(c.Request.Context(), refund.Platform)
	}
	c.JSON(http.StatusCreated, gin.H{"refund": refund})
}

func (s *Server) ListRefunds(c *gin.Context) {
	p, _ := principal.FromContext(c.Request.Context())

	var filter refunddomain.ListFilter
	if p.Role != principal.RoleAdmin {
		userID := p.UserID
		filter.UserID = &userID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := refunddomain.Status(raw)
		if !refunddomain.ValidStatus(status) {
			AbortWithError(c, refunddomain.ErrInvalidStatus)
			return
		}
		filter.Status = &status
	}

	refunds, err := s.refundSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}

func (s *Server) GetRefund(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	refund, err := s.refundSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	if p.Role != principal.RoleAdmin && refund.UserID != p.UserID {
		AbortWithError(c, ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

type reviewRefundRequest struct {
	Status          string   `json:"status"`
	AdminNotes      *string  `json:"admin_notes"`
	RequestedAmount *float64 `json:"requested_amount"`
}

func (s *Server) ReviewRefund(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req reviewRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	refund, err := s.refundSvc.UpdateStatus(c.Request.Context(), refunddomain.UpdateStatusInput{
		ID:              id,
		Status:          refunddomain.Status(strings.TrimSpace(req.Status)),
		AdminNotes:      req.AdminNotes,
		RequestedAmount: req.RequestedAmount,
		ReviewedBy:      p.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund": refund})
}
