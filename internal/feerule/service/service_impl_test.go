package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/config"
	"github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.FeeRule{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{DB: conn, Log: zap.NewNop(), GenID: node}), conn, node
}

func TestSnapshotAgentOverrideWins(t *testing.T) {
	svc, _, node := setup(t)
	ctx := context.Background()
	agentID := node.Generate()

	_, err := svc.Upsert(ctx, domain.UpsertInput{
		Platform:          domain.PlatformFacebook,
		CommissionPercent: 5,
	})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, domain.UpsertInput{
		Platform:          domain.PlatformFacebook,
		AgentID:           &agentID,
		CommissionPercent: 8,
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "Facebook", &agentID)
	require.NoError(t, err)
	assert.True(t, snap.Found)
	assert.Equal(t, 8.00, snap.CommissionPercent, "agent override wins")

	// Another agent falls through to the platform default.
	otherID := node.Generate()
	snap, err = svc.Snapshot(ctx, domain.PlatformFacebook, &otherID)
	require.NoError(t, err)
	assert.True(t, snap.Found)
	assert.Equal(t, 5.00, snap.CommissionPercent)
}

func TestSnapshotMissingRuleIsZeroNotError(t *testing.T) {
	svc, _, _ := setup(t)

	snap, err := svc.Snapshot(context.Background(), domain.PlatformGoogle, nil)
	require.NoError(t, err)
	assert.False(t, snap.Found)
	assert.Equal(t, 0.00, snap.CommissionPercent)
	assert.Equal(t, 0.00, snap.ApplicationFeeFlat)
}

func TestSnapshotRejectsUnknownPlatform(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Snapshot(context.Background(), "tiktok", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPlatform)
}

func TestUpsertValidation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertInput{Platform: "myspace"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlatform)

	_, err = svc.Upsert(ctx, domain.UpsertInput{Platform: domain.PlatformGoogle, CommissionPercent: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)

	_, err = svc.Upsert(ctx, domain.UpsertInput{Platform: domain.PlatformGoogle, ApplicationFeeFlat: -10})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestUpsertUpdatesExistingRuleInPlace(t *testing.T) {
	svc, _, node := setup(t)
	ctx := context.Background()
	admin := node.Generate()

	first, err := svc.Upsert(ctx, domain.UpsertInput{
		Platform:          domain.PlatformGoogle,
		CommissionPercent: 10,
		UpdatedBy:         admin,
	})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, domain.UpsertInput{
		Platform:           domain.PlatformGoogle,
		ApplicationFeeFlat: 25,
		CommissionPercent:  12.5,
		UpdatedBy:          admin,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "expected in-place update")
	assert.Equal(t, 12.5, second.CommissionPercent)
	assert.Equal(t, 25.00, second.ApplicationFeeFlat)

	rules, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestSeedDefaultsDoesNotOverwriteManagedRules(t *testing.T) {
	svc, conn, node := setup(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertInput{
		Platform:          domain.PlatformFacebook,
		CommissionPercent: 42,
	})
	require.NoError(t, err)

	pricing := config.NewTestPricingConfigHolder(config.PricingConfig{
		DefaultRules: []config.DefaultFeeRule{
			{Platform: domain.PlatformFacebook, CommissionPercent: 5},
			{Platform: domain.PlatformGoogle, CommissionPercent: 5, ApplicationFeeFlat: 20},
			{Platform: "myspace", CommissionPercent: 1},
		},
	})

	params := SeedParams{DB: conn, Log: zap.NewNop(), GenID: node, Pricing: pricing}
	require.NoError(t, SeedDefaults(ctx, params))
	// Seeding twice must not duplicate.
	require.NoError(t, SeedDefaults(ctx, params))

	snap, err := svc.Snapshot(ctx, domain.PlatformFacebook, nil)
	require.NoError(t, err)
	assert.Equal(t, 42.00, snap.CommissionPercent, "managed rule untouched")

	snap, err = svc.Snapshot(ctx, domain.PlatformGoogle, nil)
	require.NoError(t, err)
	assert.True(t, snap.Found)
	assert.Equal(t, 5.00, snap.CommissionPercent)
	assert.Equal(t, 20.00, snap.ApplicationFeeFlat)

	var count int64
	require.NoError(t, conn.Model(&domain.FeeRule{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "unknown platform skipped, no duplicates")
}
