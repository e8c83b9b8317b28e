package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/internal/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("feerule.service"),
		genID: p.GenID,
	}
}

func (s *Service) Snapshot(ctx context.Context, platform string, agentID *snowflake.ID) (domain.Snapshot, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !domain.ValidPlatform(platform) {
		return domain.Snapshot{}, domain.ErrInvalidPlatform
	}

	// Agent-specific rule wins over the platform default.
	var rule domain.FeeRule
	if agentID != nil && *agentID != 0 {
		err := s.db.WithContext(ctx).
			Where("platform = ? AND agent_id = ?", platform, *agentID).
			First(&rule).Error
		if err == nil {
			return snapshotOf(rule), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Snapshot{}, err
		}
	}

	err := s.db.WithContext(ctx).
		Where("platform = ? AND agent_id IS NULL", platform).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Fail-soft: a missing rule prices at zero instead of blocking
		// the caller. Under-estimated totals beat a hard failure here.
		s.log.Warn("fee rule missing, defaulting to zero", zap.String("platform", platform))
		return domain.Snapshot{Platform: platform}, nil
	}
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snapshotOf(rule), nil
}

func snapshotOf(rule domain.FeeRule) domain.Snapshot {
	return domain.Snapshot{
		Platform:           rule.Platform,
		ApplicationFeeFlat: money.Round2(rule.ApplicationFeeFlat),
		CommissionPercent:  money.Norm(rule.CommissionPercent),
		Found:              true,
	}
}

func (s *Service) Upsert(ctx context.Context, in domain.UpsertInput) (*domain.FeeRule, error) {
	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	if !domain.ValidPlatform(platform) {
		return nil, domain.ErrInvalidPlatform
	}
	if in.CommissionPercent < 0 || math.IsNaN(in.CommissionPercent) {
		return nil, domain.ErrInvalidPercent
	}
	if in.ApplicationFeeFlat < 0 || math.IsNaN(in.ApplicationFeeFlat) {
		return nil, domain.ErrInvalidAmount
	}
	if in.CommissionPercent > 100 {
		// Not clamped: legacy penalty rates may exceed 100. Logged so an
		// accidental fat-finger is visible.
		s.log.Warn("commission percent above 100",
			zap.String("platform", platform),
			zap.Float64("percent", in.CommissionPercent))
	}

	now := time.Now().UTC()

	var rule domain.FeeRule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("platform = ?", platform)
		if in.AgentID != nil && *in.AgentID != 0 {
			query = query.Where("agent_id = ?", *in.AgentID)
		} else {
			query = query.Where("agent_id IS NULL")
		}

		err := query.First(&rule).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rule = domain.FeeRule{
				ID:                 s.genID.Generate(),
				Platform:           platform,
				AgentID:            in.AgentID,
				ApplicationFeeFlat: money.Round2(in.ApplicationFeeFlat),
				CommissionPercent:  in.CommissionPercent,
				UpdatedBy:          in.UpdatedBy,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			return tx.Create(&rule).Error
		}
		if err != nil {
			return err
		}

		rule.ApplicationFeeFlat = money.Round2(in.ApplicationFeeFlat)
		rule.CommissionPercent = in.CommissionPercent
		rule.UpdatedBy = in.UpdatedBy
		rule.UpdatedAt = now
		return tx.Save(&rule).Error
	})
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

func (s *Service) List(ctx context.Context) ([]domain.FeeRule, error) {
	var rules []domain.FeeRule
	if err := s.db.WithContext(ctx).
		Order("platform ASC, agent_id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
