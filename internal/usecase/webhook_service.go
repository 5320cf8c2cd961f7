package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
	"github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

// WebhookAction describes how a delivery ended
type WebhookAction string

const (
	WebhookResolved  WebhookAction = "resolved"
	WebhookIgnored   WebhookAction = "ignored"
	WebhookUnmatched WebhookAction = "unmatched"
	WebhookDuplicate WebhookAction = "duplicate"
)

// WebhookResult is returned for every delivery that should be acknowledged
type WebhookResult struct {
	EventID          string
	Action           WebhookAction
	Status           model.PurchaseStatus
	AlreadyProcessed bool
}

// WebhookService verifies provider notifications and feeds them to the reconciler
type WebhookService struct {
	gateways   GatewayResolver
	querier    provider.StatusQuerier
	purchases  repository.PurchaseRepository
	reconciler Resolver
	journal    repository.WebhookEventRepository
	logger     *zap.Logger
}

// NewWebhookService creates a new webhook service. journal may be nil.
func NewWebhookService(
	gateways GatewayResolver,
	querier provider.StatusQuerier,
	purchases repository.PurchaseRepository,
	reconciler Resolver,
	journal repository.WebhookEventRepository,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		gateways:   gateways,
		querier:    querier,
		purchases:  purchases,
		reconciler: reconciler,
		journal:    journal,
		logger:     logger,
	}
}

// Handle processes one delivery. A returned error means the provider should redeliver,
// except SignatureVerificationError and ValidationError, which never succeed on retry.
func (s *WebhookService) Handle(ctx context.Context, p model.PaymentProvider, payload []byte, headers http.Header) (*WebhookResult, error) {
	gateway, err := s.gateways.Gateway(p)
	if err != nil {
		return nil, domainErrors.NewSignatureVerificationError(string(p), err)
	}

	event, err := gateway.VerifyWebhook(payload, headers)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.String("provider", string(p)), zap.Error(err))
		return nil, err
	}

	log := s.logger.With(
		zap.String("provider", string(event.Provider)),
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
	)

	if s.alreadyCompleted(ctx, event, log) {
		log.Info("Webhook event already processed")
		return &WebhookResult{EventID: event.EventID, Action: WebhookDuplicate, AlreadyProcessed: true}, nil
	}

	result, err := s.process(ctx, event, log)
	if err != nil {
		if s.journal != nil {
			if jErr := s.journal.MarkFailed(ctx, event.Provider, event.EventID, err); jErr != nil {
				log.Warn("Failed to mark webhook as failed", zap.Error(jErr))
			}
		}
		return nil, err
	}

	if s.journal != nil {
		if jErr := s.journal.MarkProcessed(ctx, event.Provider, event.EventID); jErr != nil {
			log.Warn("Failed to mark webhook as processed", zap.Error(jErr))
		}
	}
	return result, nil
}

// alreadyCompleted journals the delivery and reports whether an earlier one finished.
// Journal failures only cost the shortcut; processing stays idempotent without it.
func (s *WebhookService) alreadyCompleted(ctx context.Context, event *provider.WebhookEvent, log *zap.Logger) bool {
	if s.journal == nil {
		return false
	}

	stored, err := s.journal.Record(ctx, &model.PaymentWebhookEvent{
		Provider:  event.Provider,
		EventID:   event.EventID,
		EventType: event.EventType,
		Payload:   datatypes.JSON(event.Payload),
	})
	if err != nil {
		log.Warn("Failed to journal webhook event", zap.Error(err))
		return false
	}
	return stored.Status == model.WebhookStatusCompleted
}

func (s *WebhookService) process(ctx context.Context, event *provider.WebhookEvent, log *zap.Logger) (*WebhookResult, error) {
	result := &WebhookResult{EventID: event.EventID, Action: WebhookIgnored}
	purchaseRef := event.PurchaseReference

	var observed ObservedOutcome
	switch event.Signal {
	case provider.SignalPaid:
		observed = ObservedPaid
	case provider.SignalFailed:
		observed = ObservedFailed
	case provider.SignalQuery:
		if event.Reference == nil {
			return result, nil
		}
		status, err := s.querier.QueryStatus(ctx, *event.Reference)
		if errors.Is(err, provider.ErrInvalidReference) {
			log.Warn("Webhook references an unknown payment", zap.Error(err))
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query payment status: %w", err)
		}
		switch status.Outcome {
		case provider.OutcomePaid:
			observed = ObservedPaid
		case provider.OutcomeNotPaid:
			observed = ObservedFailed
		default:
			log.Info("Payment still in progress", zap.String("provider_status", status.RawStatus))
			return result, nil
		}
		if status.PurchaseReference != "" {
			purchaseRef = status.PurchaseReference
		}
	default:
		log.Debug("Ignoring webhook event")
		return result, nil
	}

	purchaseID, found, err := s.findPurchase(ctx, event, purchaseRef)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("Webhook does not match any purchase", zap.String("purchase_reference", purchaseRef))
		result.Action = WebhookUnmatched
		return result, nil
	}

	res, err := s.reconciler.Resolve(ctx, purchaseID, observed)
	if err != nil {
		return nil, err
	}

	log.Info("Webhook applied",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("status", string(res.Status)),
		zap.Bool("already_processed", res.AlreadyProcessed))

	result.Action = WebhookResolved
	result.Status = res.Status
	result.AlreadyProcessed = res.AlreadyProcessed
	if res.AlreadyProcessed && res.Status == "" {
		result.Action = WebhookUnmatched
	}
	return result, nil
}

// findPurchase uses the purchase id carried by the event, then the provider object id
func (s *WebhookService) findPurchase(ctx context.Context, event *provider.WebhookEvent, purchaseRef string) (uuid.UUID, bool, error) {
	if id, err := uuid.Parse(purchaseRef); err == nil {
		return id, true, nil
	}

	if event.Reference == nil {
		return uuid.Nil, false, nil
	}

	purchase, err := s.purchases.GetByExternalID(ctx, event.Provider, event.Reference.ID)
	if errors.Is(err, domainErrors.ErrPurchaseNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to look up purchase: %w", err)
	}
	return purchase.ID, true, nil
}
