package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	"github.com/finovia/adfin/internal/feecalc"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/internal/money"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
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

func NewService(p Params) refunddomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("refund.service"),
		genID:      p.GenID,
		feeRuleSvc: p.FeeRuleSvc,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, in refunddomain.CreateInput) (*refunddomain.Refund, error) {
	if in.UserID == 0 || in.AdAccountID == 0 {
		return nil, refunddomain.ErrNotFound
	}

	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	snapshot, err := s.feeRuleSvc.Snapshot(ctx, platform, nil)
	if err != nil {
		return nil, err
	}

	breakdown, err := feecalc.ComputeSimple(money.Round2(in.RequestedAmount), snapshot.CommissionPercent)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	refund := refunddomain.Refund{
		ID:                s.genID.Generate(),
		UserID:            in.UserID,
		AdAccountID:       in.AdAccountID,
		Platform:          platform,
		RequestedAmount:   money.Round2(in.RequestedAmount),
		FeePercent:        snapshot.CommissionPercent,
		FeesAmount:        breakdown.Fee,
		TotalRefundAmount: breakdown.Total,
		Reason:            strings.TrimSpace(in.Reason),
		Status:            refunddomain.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.db.WithContext(ctx).Create(&refund).Error; err != nil {
		return nil, err
	}

	s.audit(ctx, "refund.created", refund.ID, map[string]any{
		"requested_amount":    refund.RequestedAmount,
		"fees_amount":         refund.FeesAmount,
		"total_refund_amount": refund.TotalRefundAmount,
		"fee_percent":         refund.FeePercent,
	})
	return &refund, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*refunddomain.Refund, error) {
	var refund refunddomain.Refund
	err := s.db.WithContext(ctx).First(&refund, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, refunddomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (s *Service) List(ctx context.Context, filter refunddomain.ListFilter) ([]refunddomain.Refund, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.UserID != nil && *filter.UserID != 0 {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var refunds []refunddomain.Refund
	if err := query.Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

func (s *Service) UpdateStatus(ctx context.Context, in refunddomain.UpdateStatusInput) (*refunddomain.Refund, error) {
	if !refunddomain.ValidStatus(in.Status) {
		return nil, refunddomain.ErrInvalidStatus
	}

	var refund refunddomain.Refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&refund, "id = ?", in.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return refunddomain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if refund.Status != refunddomain.StatusPending {
			return refunddomain.ErrNotEditable
		}

		if in.RequestedAmount != nil {
			// Reprice with the rate this record was originally charged
			// at. Reading the live rule here would silently change the
			// deal the user agreed to.
			rate := feecalc.DeriveRate(refund.RequestedAmount, refund.FeesAmount)
			breakdown, err := feecalc.ComputeSimple(money.Round2(*in.RequestedAmount), rate)
			if err != nil {
				return err
			}
			refund.RequestedAmount = money.Round2(*in.RequestedAmount)
			refund.FeePercent = rate
			refund.FeesAmount = breakdown.Fee
			refund.TotalRefundAmount = breakdown.Total
		}

		refund.Status = in.Status
		refund.AdminNotes = in.AdminNotes
		refund.UpdatedAt = time.Now().UTC()
		return tx.Save(&refund).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "refund."+string(in.Status), refund.ID, map[string]any{
		"requested_amount":    refund.RequestedAmount,
		"fees_amount":         refund.FeesAmount,
		"total_refund_amount": refund.TotalRefundAmount,
		"reviewed_by":         in.ReviewedBy.String(),
	})
	return &refund, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.Record(ctx, action, "refund", &targetID, metadata); err != nil {
		s.log.Warn("refund audit write failed", zap.String("action", action), zap.Error(err))
	}
}
