// Package domain contains refund ("account clearing") application models.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound      = errors.New("refund_not_found")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrNotEditable   = errors.New("refund_not_editable")
)

// Refund is a user's request to clear funds out of an ad account. The
// fee percent is snapshotted from the fee rule at creation time and
// never re-read, so later rule changes cannot drift a historical record.
type Refund struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID            snowflake.ID `json:"user_id" gorm:"not null;index"`
	AdAccountID       snowflake.ID `json:"ad_account_id" gorm:"not null;index"`
	Platform          string       `json:"platform" gorm:"type:text;not null"`
	RequestedAmount   float64      `json:"requested_amount" gorm:"not null"`
	FeePercent        float64      `json:"fee_percent" gorm:"not null"`
	FeesAmount        float64      `json:"fees_amount" gorm:"not null"`
	TotalRefundAmount float64      `json:"total_refund_amount" gorm:"not null"`
	Reason            string       `json:"reason" gorm:"type:text"`
	AdminNotes        *string      `json:"admin_notes"`
	Status            Status       `json:"status" gorm:"type:text;not null;index"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null"`
}

func (Refund) TableName() string { return "refunds" }

type CreateInput struct {
	UserID          snowflake.ID
	AdAccountID     snowflake.ID
	Platform        string
	RequestedAmount float64
	Reason          string
}

// UpdateStatusInput carries an admin decision. When RequestedAmount is
// set the fee and total are recomputed with the rate implied by the
// record's original amount/fee pair, not the current fee rule.
type UpdateStatusInput struct {
	ID              snowflake.ID
	Status          Status
	AdminNotes      *string
	RequestedAmount *float64
	ReviewedBy      snowflake.ID
}

type ListFilter struct {
	UserID *snowflake.ID
	Status *Status
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Refund, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Refund, error)
	List(ctx context.Context, filter ListFilter) ([]Refund, error)
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*Refund, error)
}

// ValidStatus reports whether s is a known request status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}
