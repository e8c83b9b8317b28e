package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
	"github.com/finovia/adfin/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (walletdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&walletdomain.TopUp{},
		&addomain.Application{},
		&addomain.Deposit{},
		&refunddomain.Refund{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(Params{DB: conn, Log: zap.NewNop(), GenID: node})
	return svc, conn, node
}

func TestTopUpReviewLifecycle(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := context.Background()
	userID := node.Generate()
	admin := node.Generate()

	topup, err := svc.RequestTopUp(ctx, userID, 100.005, "first top-up")
	require.NoError(t, err)
	assert.Equal(t, 100.01, topup.Amount, "amount rounded on the way in")
	assert.Equal(t, walletdomain.StatusPending, topup.Status)

	reviewed, err := svc.Review(ctx, walletdomain.ReviewInput{ID: topup.ID, Status: walletdomain.StatusApproved, ReviewedBy: admin})
	require.NoError(t, err)
	assert.Equal(t, walletdomain.StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin, *reviewed.ReviewedBy)

	// A decided top-up cannot be re-reviewed.
	_, err = svc.Review(ctx, walletdomain.ReviewInput{ID: topup.ID, Status: walletdomain.StatusRejected, ReviewedBy: admin})
	assert.ErrorIs(t, err, walletdomain.ErrNotEditable)
}

func TestRequestTopUpRejectsNonPositiveAmount(t *testing.T) {
	svc, _, node := setupService(t)

	for _, amount := range []float64{0, -10, 0.001} {
		_, err := svc.RequestTopUp(context.Background(), node.Generate(), amount, "")
		assert.ErrorIs(t, err, walletdomain.ErrInvalidAmount, "amount %v", amount)
	}
}

func TestBalanceDerivedFromSourceTables(t *testing.T) {
	svc, conn, node := setupService(t)
	ctx := context.Background()
	userID := node.Generate()
	now := time.Now().UTC()

	// Two approved top-ups and one still pending; only the approved ones
	// count.
	for _, tc := range []struct {
		amount float64
		status walletdomain.Status
	}{
		{1000, walletdomain.StatusApproved},
		{500, walletdomain.StatusApproved},
		{9999, walletdomain.StatusPending},
	} {
		topup := walletdomain.TopUp{
			ID:        node.Generate(),
			UserID:    userID,
			Amount:    tc.amount,
			Status:    tc.status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, conn.Create(&topup).Error)
	}

	app := addomain.Application{
		ID:            node.Generate(),
		UserID:        userID,
		Platform:      "facebook",
		AccountName:   "acct",
		DepositAmount: 300,
		FeePercent:    10,
		FeesAmount:    30,
		TotalCost:     330,
		Status:        addomain.StatusApproved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, conn.Create(&app).Error)

	deposit := addomain.Deposit{
		ID:         node.Generate(),
		AccountID:  app.ID,
		UserID:     userID,
		Amount:     200,
		FeePercent: 10,
		FeesAmount: 20,
		TotalCost:  220,
		CreatedAt:  now,
	}
	require.NoError(t, conn.Create(&deposit).Error)

	refund := refunddomain.Refund{
		ID:                node.Generate(),
		UserID:            userID,
		AdAccountID:       app.ID,
		RequestedAmount:   100,
		FeePercent:        10,
		FeesAmount:        10,
		TotalRefundAmount: 110,
		Status:            refunddomain.StatusApproved,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, conn.Create(&refund).Error)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1500.00, balance.Credited)
	assert.Equal(t, 550.00, balance.Spent)
	assert.Equal(t, 110.00, balance.Refunded)
	assert.Equal(t, 1060.00, balance.Available)
}

func TestBalanceEmptyWallet(t *testing.T) {
	svc, _, node := setupService(t)

	balance, err := svc.Balance(context.Background(), node.Generate())
	require.NoError(t, err)
	assert.Equal(t, 0.00, balance.Credited)
	assert.Equal(t, 0.00, balance.Spent)
	assert.Equal(t, 0.00, balance.Refunded)
	assert.Equal(t, 0.00, balance.Available)
}
