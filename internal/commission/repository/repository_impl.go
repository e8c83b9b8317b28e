package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/finovia/adfin/internal/commission/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindRecord(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Record, error) {
	query := db.WithContext(ctx)
	// sqlite has no SELECT ... FOR UPDATE; its writes serialize anyway.
	if forUpdate && db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var record domain.Record
	err := query.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) FindByPeriod(ctx context.Context, db *gorm.DB, agentID snowflake.ID, month, year int) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).
		First(&record, "agent_id = ? AND month = ? AND year = ?", agentID, month, year).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) InsertRecord(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) UpdateRecord(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Save(record).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, recordID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("paid_at ASC, id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) PaidAmounts(ctx context.Context, db *gorm.DB, recordID snowflake.ID) ([]float64, error) {
	var amounts []float64
	err := db.WithContext(ctx).Raw(
		`SELECT amount
		 FROM commission_payments
		 WHERE record_id = ?
		 ORDER BY paid_at ASC, id ASC`,
		recordID,
	).Scan(&amounts).Error
	if err != nil {
		return nil, err
	}
	return amounts, nil
}

func (r *repo) ListRecords(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Record, error) {
	query := db.WithContext(ctx).Order("year DESC, month DESC")
	if filter.AgentID != nil && *filter.AgentID != 0 {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}

	var records []domain.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
