package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	"github.com/finovia/adfin/internal/principal"
)

type applyAdAccountRequest struct {
	Platform      string  `json:"platform"`
	AccountName   string  `json:"account_name"`
	DepositAmount float64 `json:"deposit_amount"`
}

func (s *Server) ApplyAdAccount(c *gin.Context) {
	var req applyAdAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	app, err := s.adAccountSvc.Apply(c.Request.Context(), addomain.ApplyInput{
		UserID:        p.UserID,
		Platform:      req.Platform,
		AccountName:   req.AccountName,
		DepositAmount: req.DepositAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordFeeComputation(c.Request.Context(), app.Platform, "ad_account_application")
	}
	c.JSON(http.StatusCreated, gin.H{"application": app})
}

func (s *Server) ListAdAccounts(c *gin.Context) {
	p, _ := principal.FromContext(c.Request.Context())

	var filter addomain.ListFilter
	if p.Role != principal.RoleAdmin {
		userID := p.UserID
		filter.UserID = &userID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := addomain.Status(raw)
		if !addomain.ValidStatus(status) {
			AbortWithError(c, addomain.ErrInvalidStatus)
			return
		}
		filter.Status = &status
	}

	apps, err := s.adAccountSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (s *Server) GetAdAccount(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	app, err := s.adAccountSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	if p.Role != principal.RoleAdmin && app.UserID != p.UserID {
		AbortWithError(c, ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

type reviewAdAccountRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

func (s *Server) ReviewAdAccount(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req reviewAdAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	app, err := s.adAccountSvc.UpdateStatus(c.Request.Context(), addomain.UpdateStatusInput{
		ID:         id,
		Status:     addomain.Status(strings.TrimSpace(req.Status)),
		AdminNotes: req.AdminNotes,
		ReviewedBy: p.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

type createDepositRequest struct {
	Amount  float64 `json:"amount"`
	Remarks string  `json:"remarks"`
}

func (s *Server) CreateDeposit(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	in := addomain.TopUpInput{
		AccountID: id,
		Amount:    req.Amount,
		Remarks:   req.Remarks,
	}
	// Admins may top up on behalf of the account owner.
	if p.Role != principal.RoleAdmin {
		in.UserID = p.UserID
	}

	deposit, err := s.adAccountSvc.TopUp(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordFeeComputation(c.Request.Context(), "", "ad_account_deposit")
	}
	c.JSON(http.StatusCreated, gin.H{"deposit": deposit})
}

func (s *Server) ListDeposits(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	app, err := s.adAccountSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	p, _ := principal.FromContext(c.Request.Context())
	if p.Role != principal.RoleAdmin && app.UserID != p.UserID {
		AbortWithError(c, ErrForbidden)
		return
	}

	deposits, err := s.adAccountSvc.ListDeposits(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}
