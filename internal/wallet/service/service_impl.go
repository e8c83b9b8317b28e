package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	"github.com/finovia/adfin/internal/money"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	auditSvc auditdomain.Service
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("wallet.service"),
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) RequestTopUp(ctx context.Context, userID snowflake.ID, amount float64, remarks string) (*walletdomain.TopUp, error) {
	if userID == 0 {
		return nil, walletdomain.ErrNotFound
	}
	amount = money.Round2(amount)
	if amount <= 0 {
		return nil, walletdomain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	topup := walletdomain.TopUp{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Amount:    amount,
		Remarks:   strings.TrimSpace(remarks),
		Status:    walletdomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(&topup).Error; err != nil {
		return nil, err
	}

	s.audit(ctx, "wallet.topup_requested", topup.ID, map[string]any{"amount": topup.Amount})
	return &topup, nil
}

func (s *Service) List(ctx context.Context, userID *snowflake.ID) ([]walletdomain.TopUp, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if userID != nil && *userID != 0 {
		query = query.Where("user_id = ?", *userID)
	}

	var topups []walletdomain.TopUp
	if err := query.Find(&topups).Error; err != nil {
		return nil, err
	}
	return topups, nil
}

func (s *Service) Review(ctx context.Context, in walletdomain.ReviewInput) (*walletdomain.TopUp, error) {
	if in.Status != walletdomain.StatusApproved && in.Status != walletdomain.StatusRejected {
		return nil, walletdomain.ErrInvalidStatus
	}

	var topup walletdomain.TopUp
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&topup, "id = ?", in.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return walletdomain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if topup.Status != walletdomain.StatusPending {
			return walletdomain.ErrNotEditable
		}

		topup.Status = in.Status
		topup.ReviewedBy = &in.ReviewedBy
		topup.UpdatedAt = time.Now().UTC()
		return tx.Save(&topup).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "wallet.topup_"+string(in.Status), topup.ID, map[string]any{
		"amount":      topup.Amount,
		"reviewed_by": in.ReviewedBy.String(),
	})
	return &topup, nil
}

// Balance derives the wallet position from the source tables: approved
// top-ups credit, approved applications and their deposits debit, and
// approved refunds credit back.
func (s *Service) Balance(ctx context.Context, userID snowflake.ID) (walletdomain.Balance, error) {
	if userID == 0 {
		return walletdomain.Balance{}, walletdomain.ErrNotFound
	}

	var credited float64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM wallet_topups
		 WHERE user_id = ? AND status = ?`,
		userID,
		walletdomain.StatusApproved,
	).Scan(&credited).Error; err != nil {
		return walletdomain.Balance{}, err
	}

	var spent float64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(
			(SELECT SUM(total_cost) FROM ad_account_applications WHERE user_id = ? AND status = ?), 0
		) + COALESCE(
			(SELECT SUM(total_cost) FROM ad_account_deposits WHERE user_id = ?), 0
		)`,
		userID,
		"approved",
		userID,
	).Scan(&spent).Error; err != nil {
		return walletdomain.Balance{}, err
	}

	var refunded float64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_refund_amount), 0)
		 FROM refunds
		 WHERE user_id = ? AND status = ?`,
		userID,
		"approved",
	).Scan(&refunded).Error; err != nil {
		return walletdomain.Balance{}, err
	}

	credited = money.Round2(credited)
	spent = money.Round2(spent)
	refunded = money.Round2(refunded)

	return walletdomain.Balance{
		UserID:    userID,
		Credited:  credited,
		Spent:     spent,
		Refunded:  refunded,
		Available: money.Sum(credited, refunded, -spent),
	}, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := id.String()
	if err := s.auditSvc.Record(ctx, action, "wallet_topup", &targetID, metadata); err != nil {
		s.log.Warn("wallet audit write failed", zap.String("action", action), zap.Error(err))
	}
}
