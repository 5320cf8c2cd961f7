package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *gorm.DB) domainRepo.ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}
