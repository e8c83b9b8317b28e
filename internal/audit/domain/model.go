package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrInvalidAction = errors.New("invalid_action")

// AuditLog is one append-only trail entry for a financial action.
type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	ActorID    snowflake.ID      `json:"actor_id" gorm:"index"`
	ActorRole  string            `json:"actor_role" gorm:"type:text"`
	Action     string            `json:"action" gorm:"type:text;not null;index"`
	TargetType string            `json:"target_type" gorm:"type:text;not null"`
	TargetID   *string           `json:"target_id"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListRequest struct {
	Action     string
	TargetType string
	Limit      int
}

type Service interface {
	Record(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListRequest) ([]AuditLog, error)
}
