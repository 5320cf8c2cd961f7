package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

// WebhookEventRepository journals webhook deliveries
type WebhookEventRepository interface {
	// Record stores the event if unseen and returns the stored row either way
	Record(ctx context.Context, event *model.PaymentWebhookEvent) (*model.PaymentWebhookEvent, error)
	MarkProcessed(ctx context.Context, provider model.PaymentProvider, eventID string) error
	MarkFailed(ctx context.Context, provider model.PaymentProvider, eventID string, cause error) error
}
