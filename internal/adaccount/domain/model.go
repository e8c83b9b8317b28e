// Package domain contains ad-account provisioning models: the initial
// application (flat application fee plus percentage deposit fee) and
// follow-up deposits priced against the account's frozen rate.
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
	ErrNotFound       = errors.New("ad_account_not_found")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrNotEditable    = errors.New("application_not_editable")
	ErrNotApproved    = errors.New("account_not_approved")
	ErrInvalidAccount = errors.New("invalid_account")
)

// Application is a request for a new ad account with an opening deposit.
// total_cost = deposit + flat application fee + percent fee on the
// deposit alone. Both fee figures are snapshotted at creation.
type Application struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID         snowflake.ID `json:"user_id" gorm:"not null;index"`
	Platform       string       `json:"platform" gorm:"type:text;not null"`
	AccountName    string       `json:"account_name" gorm:"type:text;not null"`
	DepositAmount  float64      `json:"deposit_amount" gorm:"not null"`
	ApplicationFee float64      `json:"application_fee" gorm:"not null"`
	FeePercent     float64      `json:"fee_percent" gorm:"not null"`
	FeesAmount     float64      `json:"fees_amount" gorm:"not null"`
	TotalCost      float64      `json:"total_cost" gorm:"not null"`
	AdminNotes     *string      `json:"admin_notes"`
	Status         Status       `json:"status" gorm:"type:text;not null;index"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Application) TableName() string { return "ad_account_applications" }

// Deposit is a top-up into an approved account, priced with the
// account's frozen percent (no flat fee on top-ups).
type Deposit struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	AccountID  snowflake.ID `json:"account_id" gorm:"not null;index"`
	UserID     snowflake.ID `json:"user_id" gorm:"not null;index"`
	Amount     float64      `json:"amount" gorm:"not null"`
	FeePercent float64      `json:"fee_percent" gorm:"not null"`
	FeesAmount float64      `json:"fees_amount" gorm:"not null"`
	TotalCost  float64      `json:"total_cost" gorm:"not null"`
	Remarks    string       `json:"remarks" gorm:"type:text"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
}

func (Deposit) TableName() string { return "ad_account_deposits" }

type ApplyInput struct {
	UserID        snowflake.ID
	Platform      string
	AccountName   string
	DepositAmount float64
}

type UpdateStatusInput struct {
	ID         snowflake.ID
	Status     Status
	AdminNotes *string
	ReviewedBy snowflake.ID
}

type TopUpInput struct {
	AccountID snowflake.ID
	UserID    snowflake.ID
	Amount    float64
	Remarks   string
}

type ListFilter struct {
	UserID *snowflake.ID
	Status *Status
}

type Service interface {
	Apply(ctx context.Context, in ApplyInput) (*Application, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*Application, error)
	TopUp(ctx context.Context, in TopUpInput) (*Deposit, error)
	ListDeposits(ctx context.Context, accountID snowflake.ID) ([]Deposit, error)
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}
