package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/finovia/adfin/internal/principal"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
)

type requestTopUpRequest struct {
	Amount  float64 `json:"amount"`
	Remarks string  `json:"remarks"`
}

func (s *Server) RequestTopUp(c *gin.Context) {
	var req requestTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	topup, err := s.walletSvc.RequestTopUp(c.Request.Context(), p.UserID, req.Amount, req.Remarks)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordWalletTopUp(c.Request.Context(), string(topup.Status))
	}
	c.JSON(http.StatusCreated, gin.H{"topup": topup})
}

func (s *Server) ListTopUps(c *gin.Context) {
	p, _ := principal.FromContext(c.Request.Context())

	var scope *snowflake.ID
	if p.Role != principal.RoleAdmin {
		userID := p.UserID
		scope = &userID
	}

	topups, err := s.walletSvc.List(c.Request.Context(), scope)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topups": topups})
}

type reviewTopUpRequest struct {
	Status string `json:"status"`
}

func (s *Server) ReviewTopUp(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req reviewTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	topup, err := s.walletSvc.Review(c.Request.Context(), walletdomain.ReviewInput{
		ID:         id,
		Status:     walletdomain.Status(strings.TrimSpace(req.Status)),
		ReviewedBy: p.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordWalletTopUp(c.Request.Context(), string(topup.Status))
	}
	c.JSON(http.StatusOK, gin.H{"topup": topup})
}

func (s *Server) GetWalletBalance(c *gin.Context) {
	p, _ := principal.FromContext(c.Request.Context())

	userID := p.UserID
	// Admins may inspect any wallet via ?user_id=.
	if p.Role == principal.RoleAdmin {
		if parsed, err := parseOptionalSnowflakeID(c.Query("user_id")); err != nil {
			AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid identifier"))
			return
		} else if parsed != nil {
			userID = *parsed
		}
	}

	balance, err := s.walletSvc.Balance(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
