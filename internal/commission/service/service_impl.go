package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	"github.com/finovia/adfin/internal/commission/domain"
	"github.com/finovia/adfin/internal/feecalc"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	"github.com/finovia/adfin/internal/money"
	"github.com/finovia/adfin/internal/report"
	"github.com/finovia/adfin/internal/settlement"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	FeeRuleSvc feeruledomain.Service
	AuditSvc   auditdomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	feeRuleSvc feeruledomain.Service
	auditSvc   auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("commission.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		feeRuleSvc: p.FeeRuleSvc,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) UpsertPeriod(ctx context.Context, in domain.UpsertPeriodInput) (*domain.Record, error) {
	if in.AgentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	if in.Month < 1 || in.Month > 12 || in.Year < 2000 {
		return nil, domain.ErrInvalidPeriod
	}
	base := money.Round2(in.BaseAmount)
	if base < 0 {
		return nil, feecalc.ErrInvalidAmount
	}

	var record *domain.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByPeriod(ctx, tx, in.AgentID, in.Month, in.Year)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if existing == nil {
			platform := strings.ToLower(strings.TrimSpace(in.Platform))
			snapshot, err := s.feeRuleSvc.Snapshot(ctx, platform, &in.AgentID)
			if err != nil {
				return err
			}

			breakdown, err := feecalc.ComputeSimple(base, snapshot.CommissionPercent)
			if err != nil {
				return err
			}

			record = &domain.Record{
				ID:                   s.genID.Generate(),
				AgentID:              in.AgentID,
				Month:                in.Month,
				Year:                 in.Year,
				Platform:             platform,
				BaseAmount:           base,
				CommissionPercent:    snapshot.CommissionPercent,
				CalculatedCommission: breakdown.Fee,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			return s.repo.InsertRecord(ctx, tx, record)
		}

		// Repricing an existing period keeps the percent that was
		// frozen at creation. Reading the live rule would rewrite
		// history the agent already saw.
		breakdown, err := feecalc.ComputeSimple(base, existing.CommissionPercent)
		if err != nil {
			return err
		}

		existing.BaseAmount = base
		existing.CalculatedCommission = breakdown.Fee
		existing.UpdatedAt = now
		record = existing
		return s.repo.UpdateRecord(ctx, tx, existing)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "commission.period_upserted", record.ID, map[string]any{
		"agent_id":              record.AgentID.String(),
		"month":                 record.Month,
		"year":                  record.Year,
		"base_amount":           record.BaseAmount,
		"commission_percent":    record.CommissionPercent,
		"calculated_commission": record.CalculatedCommission,
	})
	return record, nil
}

func (s *Service) Pay(ctx context.Context, in domain.PayInput) (*domain.RecordStatus, error) {
	amount := money.Round2(in.Amount)
	if amount <= 0 {
		return nil, settlement.ErrInvalidAmount
	}

	var status *domain.RecordStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.FindRecord(ctx, tx, in.RecordID, true)
		if err != nil {
			return err
		}

		// The authoritative overpay check happens here, against the
		// paid sum inside the locked transaction. A stale status read
		// by the caller does not matter.
		paid, err := s.repo.PaidAmounts(ctx, tx, record.ID)
		if err != nil {
			return err
		}
		derived := settlement.Derive(record.CalculatedCommission, paid)
		if err := settlement.Validate(amount, derived.PendingAmount); err != nil {
			return err
		}

		payment := domain.Payment{
			ID:       s.genID.Generate(),
			RecordID: record.ID,
			Amount:   amount,
			Remarks:  strings.TrimSpace(in.Remarks),
			PaidBy:   in.PaidBy,
			PaidAt:   time.Now().UTC(),
		}
		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		status, err = s.buildStatus(ctx, tx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "commission.payment_recorded", in.RecordID, map[string]any{
		"amount":  amount,
		"paid_by": in.PaidBy.String(),
		"state":   string(status.Settlement.State),
	})
	return status, nil
}

func (s *Service) Status(ctx context.Context, recordID snowflake.ID) (*domain.RecordStatus, error) {
	record, err := s.repo.FindRecord(ctx, s.db, recordID, false)
	if err != nil {
		return nil, err
	}
	return s.buildStatus(ctx, s.db, record)
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.RecordStatus, error) {
	records, err := s.repo.ListRecords(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.RecordStatus, 0, len(records))
	for i := range records {
		status, err := s.buildStatus(ctx, s.db, &records[i])
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

func (s *Service) Rows(ctx context.Context, filter domain.ListFilter) ([]report.Row, error) {
	records, err := s.repo.ListRecords(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]report.Row, 0, len(records))
	for i := range records {
		paid, err := s.repo.PaidAmounts(ctx, s.db, records[i].ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, report.Row{
			AgentID:    records[i].AgentID,
			Year:       records[i].Year,
			Month:      records[i].Month,
			Calculated: records[i].CalculatedCommission,
			Paid:       money.Sum(paid...),
		})
	}
	return rows, nil
}

func (s *Service) buildStatus(ctx context.Context, db *gorm.DB, record *domain.Record) (*domain.RecordStatus, error) {
	payments, err := s.repo.ListPayments(ctx, db, record.ID)
	if err != nil {
		return nil, err
	}

	amounts := make([]float64, len(payments))
	for i, p := range payments {
		amounts[i] = p.Amount
	}
	derived := settlement.Derive(record.CalculatedCommission, amounts)

	return &domain.RecordStatus{
		Record:        *record,
		Payments:      payments,
		Settlement:    derived,
		ProgressRatio: settlement.ProgressRatio(record.CalculatedCommission, amounts),
	}, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.Record(ctx, action, "commission_record", &targetID, metadata); err != nil {
		s.log.Warn("commission audit write failed", zap.String("action", action), zap.Error(err))
	}
}
