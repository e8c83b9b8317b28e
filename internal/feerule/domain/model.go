// Package domain contains fee rule models. A fee rule is the platform's
// pricing configuration: a flat application fee plus a commission
// percentage, keyed per ad platform and optionally per agent.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	PlatformFacebook = "facebook"
	PlatformGoogle   = "google"
)

var (
	ErrInvalidPlatform = errors.New("invalid_platform")
	ErrInvalidPercent  = errors.New("invalid_percent")
	ErrInvalidAmount   = errors.New("invalid_amount")
)

// FeeRule is the stored pricing configuration.
type FeeRule struct {
	ID                 snowflake.ID  `json:"id" gorm:"primaryKey"`
	Platform           string        `json:"platform" gorm:"type:text;not null;index:idx_fee_rules_scope,unique"`
	AgentID            *snowflake.ID `json:"agent_id" gorm:"index:idx_fee_rules_scope,unique"`
	ApplicationFeeFlat float64       `json:"application_fee_flat" gorm:"not null"`
	CommissionPercent  float64       `json:"commission_percent" gorm:"not null"`
	UpdatedBy          snowflake.ID  `json:"updated_by"`
	CreatedAt          time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time     `json:"updated_at" gorm:"not null"`
}

func (FeeRule) TableName() string { return "fee_rules" }

// Snapshot is an immutable by-value copy of a rule taken at record
// creation time. Records keep their snapshot even when the rule changes.
type Snapshot struct {
	Platform           string  `json:"platform"`
	ApplicationFeeFlat float64 `json:"application_fee_flat"`
	CommissionPercent  float64 `json:"commission_percent"`
	Found              bool    `json:"found"`
}

type UpsertInput struct {
	Platform           string
	AgentID            *snowflake.ID
	ApplicationFeeFlat float64
	CommissionPercent  float64
	UpdatedBy          snowflake.ID
}

type Service interface {
	// Snapshot never fails on a missing rule: it returns a zero-valued
	// snapshot with Found=false so callers can still price a request.
	Snapshot(ctx context.Context, platform string, agentID *snowflake.ID) (Snapshot, error)
	Upsert(ctx context.Context, in UpsertInput) (*FeeRule, error)
	List(ctx context.Context) ([]FeeRule, error)
}

// ValidPlatform reports whether p names a supported ad platform.
func ValidPlatform(p string) bool {
	return p == PlatformFacebook || p == PlatformGoogle
}
