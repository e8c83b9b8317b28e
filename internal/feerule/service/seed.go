package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/config"
	"github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/internal/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SeedParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Pricing *config.PricingConfigHolder `optional:"true"`
}

// SeedDefaults inserts a platform-wide rule for each configured default
// that has no rule yet. Rules already managed through the API are never
// touched, so seeding is safe to run on every startup.
func SeedDefaults(ctx context.Context, p SeedParams) error {
	if p.Pricing == nil {
		return nil
	}
	log := p.Log.Named("feerule.seed")

	for _, def := range p.Pricing.Get().DefaultRules {
		platform := strings.ToLower(strings.TrimSpace(def.Platform))
		if !domain.ValidPlatform(platform) {
			log.Warn("skipping default rule for unknown platform", zap.String("platform", def.Platform))
			continue
		}

		var existing domain.FeeRule
		err := p.DB.WithContext(ctx).
			Where("platform = ? AND agent_id IS NULL", platform).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		rule := domain.FeeRule{
			ID:                 p.GenID.Generate(),
			Platform:           platform,
			ApplicationFeeFlat: money.Round2(def.ApplicationFeeFlat),
			CommissionPercent:  money.Norm(def.CommissionPercent),
		}
		if err := p.DB.WithContext(ctx).Create(&rule).Error; err != nil {
			return err
		}
		log.Info("seeded default fee rule",
			zap.String("platform", platform),
			zap.Float64("commission_percent", rule.CommissionPercent),
			zap.Float64("application_fee_flat", rule.ApplicationFeeFlat),
		)
	}
	return nil
}
