// Package domain contains agent commission models. A record is one
// agent's month: a commission target computed from a base amount and a
// snapshotted percent, settled over time by discrete payments.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/report"
	"github.com/finovia/adfin/internal/settlement"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("commission_record_not_found")
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrInvalidAgent  = errors.New("invalid_agent")
)

// Record is an agent's commission for one (month, year) period.
// Append-only: payments accumulate, the record itself is superseded by
// the next period and never deleted.
type Record struct {
	ID                   snowflake.ID `json:"id" gorm:"primaryKey"`
	AgentID              snowflake.ID `json:"agent_id" gorm:"not null;index:idx_commission_period,unique"`
	Month                int          `json:"month" gorm:"not null;index:idx_commission_period,unique"`
	Year                 int          `json:"year" gorm:"not null;index:idx_commission_period,unique"`
	Platform             string       `json:"platform" gorm:"type:text;not null"`
	BaseAmount           float64      `json:"base_amount" gorm:"not null"`
	CommissionPercent    float64      `json:"commission_percent" gorm:"not null"`
	CalculatedCommission float64      `json:"calculated_commission" gorm:"not null"`
	CreatedAt            time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt            time.Time    `json:"updated_at" gorm:"not null"`
}

func (Record) TableName() string { return "commission_records" }

// Payment is one payout against a record. No edits, no deletes.
type Payment struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	RecordID snowflake.ID `json:"record_id" gorm:"not null;index"`
	Amount   float64      `json:"amount" gorm:"not null"`
	Remarks  string       `json:"remarks" gorm:"type:text"`
	PaidBy   snowflake.ID `json:"paid_by"`
	PaidAt   time.Time    `json:"paid_at" gorm:"not null"`
}

func (Payment) TableName() string { return "commission_payments" }

// RecordStatus is a record joined with its derived settlement position.
type RecordStatus struct {
	Record        Record            `json:"record"`
	Payments      []Payment         `json:"payments"`
	Settlement    settlement.Status `json:"settlement"`
	ProgressRatio float64           `json:"progress_ratio"`
}

type UpsertPeriodInput struct {
	AgentID    snowflake.ID
	Month      int
	Year       int
	Platform   string
	BaseAmount float64
}

type PayInput struct {
	RecordID snowflake.ID
	Amount   float64
	Remarks  string
	PaidBy   snowflake.ID
}

type ListFilter struct {
	AgentID *snowflake.ID
	Year    *int
}

// Repository takes the *gorm.DB per call so service transactions can
// pass their tx handle through.
type Repository interface {
	FindRecord(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Record, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, agentID snowflake.ID, month, year int) (*Record, error)
	InsertRecord(ctx context.Context, db *gorm.DB, record *Record) error
	UpdateRecord(ctx context.Context, db *gorm.DB, record *Record) error
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListPayments(ctx context.Context, db *gorm.DB, recordID snowflake.ID) ([]Payment, error)
	PaidAmounts(ctx context.Context, db *gorm.DB, recordID snowflake.ID) ([]float64, error)
	ListRecords(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Record, error)
}

type Service interface {
	// UpsertPeriod creates or reprices the record for an agent's period.
	// The percent is snapshotted from the fee rule (agent override
	// first) at creation and kept on reprice.
	UpsertPeriod(ctx context.Context, in UpsertPeriodInput) (*Record, error)
	// Pay appends a payment after re-deriving the pending amount inside
	// the payout transaction. Overpay fails with
	// settlement.ErrExceedsPending and is never retried here.
	Pay(ctx context.Context, in PayInput) (*RecordStatus, error)
	Status(ctx context.Context, recordID snowflake.ID) (*RecordStatus, error)
	List(ctx context.Context, filter ListFilter) ([]RecordStatus, error)
	// Rows flattens records and their paid totals into report rows.
	Rows(ctx context.Context, filter ListFilter) ([]report.Row, error)
}
