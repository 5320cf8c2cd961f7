package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/repository"
	"github.com/wekeepgrowing/semo-credits/pkg/messaging"
)

// EventPurchaseResolved is the Redis channel confirmed purchases are announced on
const EventPurchaseResolved = "credits.purchase.resolved"

// ObservedOutcome is what a trigger learned about a payment
type ObservedOutcome string

const (
	ObservedPaid   ObservedOutcome = "paid"
	ObservedFailed ObservedOutcome = "failed"
)

func (o ObservedOutcome) target() (model.PurchaseStatus, error) {
	switch o {
	case ObservedPaid:
		return model.PurchaseStatusConfirmed, nil
	case ObservedFailed:
		return model.PurchaseStatusFailed, nil
	}
	return "", domainErrors.NewValidationError("outcome", "unknown outcome "+string(o))
}

// ResolutionResult reports the purchase status after Resolve.
// AlreadyProcessed means another trigger won; Status is then the stored status
// (empty if the purchase does not exist).
type ResolutionResult struct {
	Status           model.PurchaseStatus
	AlreadyProcessed bool
}

// Resolver moves a pending purchase to a terminal state
type Resolver interface {
	Resolve(ctx context.Context, purchaseID uuid.UUID, observed ObservedOutcome) (*ResolutionResult, error)
}

// PurchaseResolvedEvent is published after a purchase is confirmed
type PurchaseResolvedEvent struct {
	PurchaseID uuid.UUID            `json:"purchase_id"`
	UserID     uuid.UUID            `json:"user_id"`
	Status     model.PurchaseStatus `json:"status"`
	Credits    int64                `json:"credits"`
	Provider   string               `json:"provider"`
	ResolvedAt time.Time            `json:"resolved_at"`
}

// ReconciliationService is the single place where purchases change state
type ReconciliationService struct {
	transactor repository.Transactor
	purchases  repository.PurchaseRepository
	activity   repository.ActivityLogRepository
	publisher  messaging.Publisher
	logger     *zap.Logger
}

// NewReconciliationService creates a new reconciliation service. publisher may be nil.
func NewReconciliationService(
	transactor repository.Transactor,
	purchases repository.PurchaseRepository,
	activity repository.ActivityLogRepository,
	publisher messaging.Publisher,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		transactor: transactor,
		purchases:  purchases,
		activity:   activity,
		publisher:  publisher,
		logger:     logger,
	}
}

// Resolve claims the purchase and, for a payment, grants its credits in the same transaction.
// Whichever trigger claims first does the work; every later call returns AlreadyProcessed.
func (s *ReconciliationService) Resolve(ctx context.Context, purchaseID uuid.UUID, observed ObservedOutcome) (*ResolutionResult, error) {
	target, err := observed.target()
	if err != nil {
		return nil, err
	}

	var claimed *model.CreditPurchase
	err = s.transactor.WithinTransaction(ctx, func(stores repository.Stores) error {
		purchase, err := stores.Purchases.ClaimPendingForTransition(ctx, purchaseID, target)
		if err != nil {
			return err
		}

		if target == model.PurchaseStatusConfirmed {
			inserted, err := stores.Ledger.RecordGrant(ctx, &model.CreditGrant{
				PurchaseID: purchase.ID,
				UserID:     purchase.UserID,
				Credits:    purchase.TotalCredits,
			})
			if err != nil {
				return err
			}
			if inserted {
				if err := stores.Ledger.IncrementBalance(ctx, purchase.UserID, purchase.TotalCredits); err != nil {
					return err
				}
			} else {
				s.logger.Warn("Credit grant already recorded for pending purchase",
					zap.String("purchase_id", purchase.ID.String()))
			}
		}

		claimed = purchase
		return nil
	})

	if errors.Is(err, domainErrors.ErrPurchaseNotFound) {
		return s.alreadyProcessed(ctx, purchaseID, target)
	}
	if err != nil {
		s.logger.Error("Failed to resolve purchase",
			zap.String("purchase_id", purchaseID.String()),
			zap.String("status", string(target)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to resolve purchase: %w", err)
	}

	s.logger.Info("Purchase resolved",
		zap.String("purchase_id", claimed.ID.String()),
		zap.String("user_id", claimed.UserID.String()),
		zap.String("provider", string(claimed.PaymentProvider)),
		zap.String("status", string(target)),
		zap.Int64("credits", claimed.TotalCredits))

	if target == model.PurchaseStatusConfirmed {
		s.afterConfirm(ctx, claimed)
	}

	return &ResolutionResult{Status: target}, nil
}

func (s *ReconciliationService) alreadyProcessed(ctx context.Context, purchaseID uuid.UUID, target model.PurchaseStatus) (*ResolutionResult, error) {
	current, err := s.purchases.GetByID(ctx, purchaseID)
	if errors.Is(err, domainErrors.ErrPurchaseNotFound) {
		s.logger.Warn("Resolve called for unknown purchase", zap.String("purchase_id", purchaseID.String()))
		return &ResolutionResult{AlreadyProcessed: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read resolved purchase: %w", err)
	}

	// failed is terminal, so a payment settling afterwards needs a manual refund or grant
	if current.Status == model.PurchaseStatusFailed && target == model.PurchaseStatusConfirmed {
		s.logger.Warn("Payment reported for failed purchase",
			zap.String("purchase_id", purchaseID.String()),
			zap.String("user_id", current.UserID.String()),
			zap.String("provider", string(current.PaymentProvider)))
		return &ResolutionResult{Status: current.Status, AlreadyProcessed: true}, nil
	}

	s.logger.Debug("Purchase already resolved",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("status", string(current.Status)))
	return &ResolutionResult{Status: current.Status, AlreadyProcessed: true}, nil
}

// afterConfirm writes the activity entry and announces the purchase.
// Both run after commit and only log on failure.
func (s *ReconciliationService) afterConfirm(ctx context.Context, p *model.CreditPurchase) {
	entry := &model.ActivityLog{
		UserID: p.UserID,
		Action: model.ActivityActionCreditPurchase,
		Details: datatypes.JSONMap{
			"credits":        p.TotalCredits,
			"price":          decimal.New(p.PriceMinor, -2).StringFixed(2),
			"price_minor":    p.PriceMinor,
			"currency":       p.Currency,
			"payment_method": string(p.PaymentMethod),
			"purchase_id":    p.ID.String(),
		},
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append activity log",
			zap.String("purchase_id", p.ID.String()),
			zap.Error(err))
	}

	if s.publisher == nil {
		return
	}
	resolvedAt := time.Now()
	if p.ResolvedAt != nil {
		resolvedAt = *p.ResolvedAt
	}
	event := PurchaseResolvedEvent{
		PurchaseID: p.ID,
		UserID:     p.UserID,
		Status:     p.Status,
		Credits:    p.TotalCredits,
		Provider:   string(p.PaymentProvider),
		ResolvedAt: resolvedAt,
	}
	if err := s.publisher.Publish(ctx, EventPurchaseResolved, event); err != nil {
		s.logger.Warn("Failed to publish purchase event",
			zap.String("purchase_id", p.ID.String()),
			zap.Error(err))
	}
}
