package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domainRepo "github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

type gormTransactor struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactor creates a Transactor backed by gorm transactions
func NewTransactor(db *gorm.DB, logger *zap.Logger) domainRepo.Transactor {
	return &gormTransactor{db: db, logger: logger}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(stores domainRepo.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(domainRepo.Stores{
			Purchases: NewPurchaseRepository(tx, t.logger),
			Ledger:    NewLedgerRepository(tx, t.logger),
		})
	})
}
