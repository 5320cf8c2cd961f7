package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

// PurchaseRepository persists credit purchases
type PurchaseRepository interface {
	// Create validates and stores a pending purchase
	Create(ctx context.Context, in *model.NewPurchase) (*model.CreditPurchase, error)

	// GetByID returns ErrPurchaseNotFound for unknown ids
	GetByID(ctx context.Context, id uuid.UUID) (*model.CreditPurchase, error)

	// GetByExternalID looks a purchase up by its provider reference
	GetByExternalID(ctx context.Context, provider model.PaymentProvider, externalID string) (*model.CreditPurchase, error)

	// ClaimPendingForTransition moves a pending purchase to target in one conditional update.
	// ErrPurchaseNotFound means nothing matched: the id is unknown or the purchase is already terminal.
	ClaimPendingForTransition(ctx context.Context, id uuid.UUID, target model.PurchaseStatus) (*model.CreditPurchase, error)

	// AttachExternalID sets the provider reference if none is stored yet; status is untouched
	AttachExternalID(ctx context.Context, id uuid.UUID, externalID string) error

	// ListPendingOlderThan returns pending purchases with an external id created before cutoff
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.CreditPurchase, error)

	// ListConfirmedWithoutGrant returns confirmed purchases that have no credit_grants row
	ListConfirmedWithoutGrant(ctx context.Context, limit int) ([]*model.CreditPurchase, error)
}
