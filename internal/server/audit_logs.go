package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	limit := 0
	if parsed, err := parseOptionalInt(c.Query("limit")); err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid value"))
		return
	} else if parsed != nil {
		limit = *parsed
	}

	logs, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		Limit:      limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
