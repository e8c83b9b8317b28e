package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	"github.com/finovia/adfin/internal/feecalc"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/internal/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	FeeRuleSvc feeruledomain.Service
	AuditSvc   auditdomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	feeRuleSvc feeruledomain.Service
	auditSvc   auditdomain.Service
}

func NewService(p Params) addomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("adaccount.service"),
		genID:      p.GenID,
		feeRuleSvc: p.FeeRuleSvc,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Apply(ctx context.Context, in addomain.ApplyInput) (*addomain.Application, error) {
	if in.UserID == 0 {
		return nil, addomain.ErrInvalidAccount
	}
	name := strings.TrimSpace(in.AccountName)
	if name == "" {
		return nil, addomain.ErrInvalidAccount
	}

	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	snapshot, err := s.feeRuleSvc.Snapshot(ctx, platform, nil)
	if err != nil {
		return nil, err
	}

	deposit := money.Round2(in.DepositAmount)
	breakdown, err := feecalc.ComputeWithFlatFee(deposit, snapshot.ApplicationFeeFlat, snapshot.CommissionPercent)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := addomain.Application{
		ID:             s.genID.Generate(),
		UserID:         in.UserID,
		Platform:       platform,
		AccountName:    name,
		DepositAmount:  deposit,
		ApplicationFee: snapshot.ApplicationFeeFlat,
		FeePercent:     snapshot.CommissionPercent,
		FeesAmount:     breakdown.Fee,
		TotalCost:      breakdown.Total,
		Status:         addomain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.WithContext(ctx).Create(&app).Error; err != nil {
		return nil, err
	}

	s.audit(ctx, "adaccount.applied", app.ID, map[string]any{
		"platform":        app.Platform,
		"deposit_amount":  app.DepositAmount,
		"application_fee": app.ApplicationFee,
		"fees_amount":     app.FeesAmount,
		"total_cost":      app.TotalCost,
	})
	return &app, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*addomain.Application, error) {
	var app addomain.Application
	err := s.db.WithContext(ctx).First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, addomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *Service) List(ctx context.Context, filter addomain.ListFilter) ([]addomain.Application, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.UserID != nil && *filter.UserID != 0 {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var apps []addomain.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *Service) UpdateStatus(ctx context.Context, in addomain.UpdateStatusInput) (*addomain.Application, error) {
	if !addomain.ValidStatus(in.Status) {
		return nil, addomain.ErrInvalidStatus
	}

	var app addomain.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&app, "id = ?", in.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return addomain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if app.Status != addomain.StatusPending {
			return addomain.ErrNotEditable
		}

		app.Status = in.Status
		app.AdminNotes = in.AdminNotes
		app.UpdatedAt = time.Now().UTC()
		return tx.Save(&app).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "adaccount."+string(in.Status), app.ID, map[string]any{
		"reviewed_by": in.ReviewedBy.String(),
		"total_cost":  app.TotalCost,
	})
	return &app, nil
}

func (s *Service) TopUp(ctx context.Context, in addomain.TopUpInput) (*addomain.Deposit, error) {
	app, err := s.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if app.Status != addomain.StatusApproved {
		return nil, addomain.ErrNotApproved
	}
	if in.UserID != 0 && in.UserID != app.UserID {
		return nil, addomain.ErrInvalidAccount
	}

	amount := money.Round2(in.Amount)
	if amount <= 0 {
		return nil, feecalc.ErrInvalidAmount
	}

	// Top-ups reuse the percent frozen on the application, not the
	// current rule.
	breakdown, err := feecalc.ComputeSimple(amount, app.FeePercent)
	if err != nil {
		return nil, err
	}

	deposit := addomain.Deposit{
		ID:         s.genID.Generate(),
		AccountID:  app.ID,
		UserID:     app.UserID,
		Amount:     amount,
		FeePercent: app.FeePercent,
		FeesAmount: breakdown.Fee,
		TotalCost:  breakdown.Total,
		Remarks:    strings.TrimSpace(in.Remarks),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&deposit).Error; err != nil {
		return nil, err
	}

	s.audit(ctx, "adaccount.topup", deposit.ID, map[string]any{
		"account_id":  app.ID.String(),
		"amount":      deposit.Amount,
		"fees_amount": deposit.FeesAmount,
		"total_cost":  deposit.TotalCost,
	})
	return &deposit, nil
}

func (s *Service) ListDeposits(ctx context.Context, accountID snowflake.ID) ([]addomain.Deposit, error) {
	var deposits []addomain.Deposit
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&deposits).Error; err != nil {
		return nil, err
	}
	return deposits, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.Record(ctx, action, "ad_account", &targetID, metadata); err != nil {
		s.log.Warn("adaccount audit write failed", zap.String("action", action), zap.Error(err))
	}
}
