package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/internal/principal"
)

func (s *Server) ListFeeRules(c *gin.Context) {
	rules, err := s.feeRuleSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_rules": rules})
}

type upsertFeeRuleRequest struct {
	Platform           string  `json:"platform"`
	AgentID            string  `json:"agent_id"`
	ApplicationFeeFlat float64 `json:"application_fee_flat"`
	CommissionPercent  float64 `json:"commission_percent"`
}

func (s *Server) UpsertFeeRule(c *gin.Context) {
	var req upsertFeeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	agentID, err := parseOptionalSnowflakeID(req.AgentID)
	if err != nil {
		AbortWithError(c, newValidationError("agent_id", "invalid_id", "invalid identifier"))
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	rule, err := s.feeRuleSvc.Upsert(c.Request.Context(), feeruledomain.UpsertInput{
		Platform:           req.Platform,
		AgentID:            agentID,
		ApplicationFeeFlat: req.ApplicationFeeFlat,
		CommissionPercent:  req.CommissionPercent,
		UpdatedBy:          p.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_rule": rule})
}
