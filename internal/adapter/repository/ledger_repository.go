package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

// ledgerRepository implements the LedgerRepository interface
type ledgerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// IncrementBalance delegates to increment_user_credits, a single upsert that adds to the stored value
func (r *ledgerRepository) IncrementBalance(ctx context.Context, userID uuid.UUID, credits int64) error {
	if credits <= 0 {
		return domainErrors.NewValidationError("credits", "must be positive")
	}

	if err := r.db.WithContext(ctx).Exec("SELECT increment_user_credits(?, ?)", userID, credits).Error; err != nil {
		r.logger.Error("Failed to increment user credits",
			zap.String("user_id", userID.String()),
			zap.Int64("credits", credits),
			zap.Error(err))
		return fmt.Errorf("%w: %w", domainErrors.ErrLedgerIncrement, err)
	}

	return nil
}

// RecordGrant inserts the grant row; a conflicting purchase_id leaves the table unchanged
func (r *ledgerRepository) RecordGrant(ctx context.Context, grant *model.CreditGrant) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "purchase_id"}},
			DoNothing: true,
		}).
		Create(grant)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record credit grant: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// GetBalance returns the current credits of a user
func (r *ledgerRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance model.UserCredits

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get user credits: %w", err)
	}

	return balance.Credits, nil
}
