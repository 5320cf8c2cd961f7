package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook event journal
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// Record saves the delivery, or counts another attempt for one already seen
func (r *webhookRepository) Record(ctx context.Context, event *model.PaymentWebhookEvent) (*model.PaymentWebhookEvent, error) {
	event.Status = model.WebhookStatusPending
	event.Attempts = 1

	// Use ON CONFLICT to handle duplicate deliveries
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("provider", string(event.Provider)),
			zap.String("event_id", event.EventID),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to save webhook event: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return event, nil
	}

	var stored model.PaymentWebhookEvent
	err := r.db.WithContext(ctx).
		Model(&stored).
		Clauses(clause.Returning{}).
		Where("provider = ? AND event_id = ?", event.Provider, event.EventID).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update webhook event: %w", err)
	}

	return &stored, nil
}

// MarkProcessed marks a webhook event as processed
func (r *webhookRepository) MarkProcessed(ctx context.Context, provider model.PaymentProvider, eventID string) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.PaymentWebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusCompleted,
			"processed_at": &now,
			"last_error":   nil,
			"updated_at":   now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	return nil
}

// MarkFailed stores the last failure; the provider redelivers on its own schedule
func (r *webhookRepository) MarkFailed(ctx context.Context, provider model.PaymentProvider, eventID string, cause error) error {
	errorMsg := cause.Error()

	result := r.db.WithContext(ctx).
		Model(&model.PaymentWebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Updates(map[string]interface{}{
			"status":     model.WebhookStatusFailed,
			"last_error": &errorMsg,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark webhook as failed: %w", result.Error)
	}

	return nil
}
