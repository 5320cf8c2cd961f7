package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-credits/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Purchase    domainRepo.PurchaseRepository
	Ledger      domainRepo.LedgerRepository
	ActivityLog domainRepo.ActivityLogRepository
	Webhook     domainRepo.WebhookEventRepository
	Transactor  domainRepo.Transactor
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Purchase:    repository.NewPurchaseRepository(db, logger),
		Ledger:      repository.NewLedgerRepository(db, logger),
		ActivityLog: repository.NewActivityLogRepository(db),
		Webhook:     repository.NewWebhookRepository(db, logger),
		Transactor:  repository.NewTransactor(db, logger),
	}
}
