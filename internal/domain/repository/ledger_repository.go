package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

// LedgerRepository changes user balances
type LedgerRepository interface {
	// IncrementBalance atomically adds credits, creating the balance row if needed.
	// It is not idempotent; callers pair it with RecordGrant in one transaction.
	IncrementBalance(ctx context.Context, userID uuid.UUID, credits int64) error

	// RecordGrant inserts the grant marker; inserted is false when the purchase was already granted
	RecordGrant(ctx context.Context, grant *model.CreditGrant) (inserted bool, err error)

	// GetBalance returns 0 for users without a balance row
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ActivityLogRepository appends user activity entries
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
}
