// Package domain contains wallet top-up models. The wallet balance is
// never stored; it is derived from approved top-ups minus approved
// spending, plus approved refunds credited back.
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
	ErrNotFound      = errors.New("topup_not_found")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrNotEditable   = errors.New("topup_not_editable")
	ErrInvalidAmount = errors.New("invalid_amount")
)

type TopUp struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID     snowflake.ID `json:"user_id" gorm:"not null;index"`
	Amount     float64      `json:"amount" gorm:"not null"`
	Remarks    string       `json:"remarks" gorm:"type:text"`
	Status     Status       `json:"status" gorm:"type:text;not null;index"`
	ReviewedBy *snowflake.ID `json:"reviewed_by"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null"`
}

func (TopUp) TableName() string { return "wallet_topups" }

// Balance is a derived wallet position.
type Balance struct {
	UserID    snowflake.ID `json:"user_id"`
	Credited  float64      `json:"credited"`
	Spent     float64      `json:"spent"`
	Refunded  float64      `json:"refunded"`
	Available float64      `json:"available"`
}

type ReviewInput struct {
	ID         snowflake.ID
	Status     Status
	ReviewedBy snowflake.ID
}

type Service interface {
	RequestTopUp(ctx context.Context, userID snowflake.ID, amount float64, remarks string) (*TopUp, error)
	List(ctx context.Context, userID *snowflake.ID) ([]TopUp, error)
	Review(ctx context.Context, in ReviewInput) (*TopUp, error)
	Balance(ctx context.Context, userID snowflake.ID) (Balance, error)
}
