// Package migration creates the schema on startup so the service is
// usable out of the box for local and self-hosted environments. The
// same model set drives every supported dialect.
package migration

import (
	"errors"

	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	commissiondomain "github.com/finovia/adfin/internal/commission/domain"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
	"gorm.io/gorm"
)

func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	return conn.AutoMigrate(
		&feeruledomain.FeeRule{},
		&refunddomain.Refund{},
		&addomain.Application{},
		&addomain.Deposit{},
		&walletdomain.TopUp{},
		&commissiondomain.Record{},
		&commissiondomain.Payment{},
		&auditdomain.AuditLog{},
	)
}
