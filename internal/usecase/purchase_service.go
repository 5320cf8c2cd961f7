package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
	"github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

// GatewayResolver returns the gateway configured for a provider
type GatewayResolver interface {
	Gateway(p model.PaymentProvider) (provider.Gateway, error)
}

// PollLimiter decides whether a poll may reach the provider
type PollLimiter interface {
	Allow(ctx context.Context, purchaseID uuid.UUID) (bool, error)
}

// PurchaseServiceConfig holds the settings purchases are created with
type PurchaseServiceConfig struct {
	Currency  string
	ClientURL string
}

// CreatePurchaseInput starts a checkout for a catalog package
type CreatePurchaseInput struct {
	PackageID     string
	Provider      model.PaymentProvider
	PaymentMethod model.PaymentMethod
}

// CreatePurchaseResult is the pending purchase and where to send the user
type CreatePurchaseResult struct {
	Purchase    *model.CreditPurchase
	CheckoutURL string
}

// ConfirmInput is a caller's claim about a payment
type ConfirmInput struct {
	ExternalPaymentID string
	AssertedStatus    string
	Provider          model.PaymentProvider
}

// PurchaseService serves the user-facing purchase endpoints
type PurchaseService struct {
	purchases  repository.PurchaseRepository
	gateways   GatewayResolver
	querier    provider.StatusQuerier
	reconciler Resolver
	throttle   PollLimiter
	catalog    *Catalog
	cfg        PurchaseServiceConfig
	logger     *zap.Logger
}

// NewPurchaseService creates a new purchase service. throttle may be nil.
func NewPurchaseService(
	purchases repository.PurchaseRepository,
	gateways GatewayResolver,
	querier provider.StatusQuerier,
	reconciler Resolver,
	throttle PollLimiter,
	catalog *Catalog,
	cfg PurchaseServiceConfig,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchases:  purchases,
		gateways:   gateways,
		querier:    querier,
		reconciler: reconciler,
		throttle:   throttle,
		catalog:    catalog,
		cfg:        cfg,
		logger:     logger,
	}
}

// Packages lists what can be bought
func (s *PurchaseService) Packages() []CreditPackage {
	return s.catalog.List()
}

// Create stores a pending purchase and opens the provider checkout for it
func (s *PurchaseService) Create(ctx context.Context, userID uuid.UUID, in CreatePurchaseInput) (*CreatePurchaseResult, error) {
	pkg, err := s.catalog.Get(in.PackageID)
	if err != nil {
		return nil, err
	}

	gateway, err := s.gateways.Gateway(in.Provider)
	if err != nil {
		return nil, err
	}

	purchase, err := s.purchases.Create(ctx, &model.NewPurchase{
		UserID:          userID,
		PackageID:       pkg.ID,
		BaseCredits:     pkg.BaseCredits,
		BonusCredits:    pkg.BonusCredits,
		PriceMinor:      pkg.PriceMinor,
		Currency:        s.cfg.Currency,
		PaymentProvider: in.Provider,
		PaymentMethod:   in.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	returnURL := strings.TrimRight(s.cfg.ClientURL, "/") + "/credits/purchases/" + purchase.ID.String()
	session, err := gateway.CreateCheckout(ctx, &provider.CheckoutRequest{
		PurchaseID:    purchase.ID,
		UserID:        userID,
		Description:   fmt.Sprintf("%s (%d credits)", pkg.Name, pkg.TotalCredits()),
		PriceMinor:    purchase.PriceMinor,
		Currency:      purchase.Currency,
		PaymentMethod: purchase.PaymentMethod,
		SuccessURL:    returnURL + "?result=success",
		CancelURL:     returnURL + "?result=cancel",
	})
	if err != nil {
		// The purchase stays pending without an external id and is never resolvable; nothing was charged.
		s.logger.Error("Failed to open checkout",
			zap.String("purchase_id", purchase.ID.String()),
			zap.String("provider", string(in.Provider)),
			zap.Error(err))
		return nil, err
	}

	if err := s.purchases.AttachExternalID(ctx, purchase.ID, session.ExternalID); err != nil {
		return nil, fmt.Errorf("failed to store checkout reference: %w", err)
	}
	externalID := session.ExternalID
	purchase.ExternalPaymentID = &externalID

	s.logger.Info("Purchase created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("provider", string(in.Provider)),
		zap.String("package_id", pkg.ID))

	return &CreatePurchaseResult{Purchase: purchase, CheckoutURL: session.URL}, nil
}

// Get returns the caller's purchase
func (s *PurchaseService) Get(ctx context.Context, userID, purchaseID uuid.UUID) (*model.CreditPurchase, error) {
	purchase, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	return purchase, nil
}

// Poll asks the provider about a pending purchase and resolves it if the answer is final.
// Ownership is checked before any provider call.
func (s *PurchaseService) Poll(ctx context.Context, userID, purchaseID uuid.UUID) (model.PurchaseStatus, error) {
	purchase, err := s.Get(ctx, userID, purchaseID)
	if err != nil {
		return "", err
	}

	if purchase.Status.IsTerminal() || !purchase.HasExternalID() {
		return purchase.Status, nil
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, purchase.ID)
		if err != nil {
			s.logger.Warn("Poll throttle unavailable", zap.String("purchase_id", purchase.ID.String()), zap.Error(err))
		} else if !allowed {
			return purchase.Status, nil
		}
	}

	return resolveFromProvider(ctx, s.querier, s.reconciler, purchase, s.logger)
}

// Confirm re-verifies a caller's claim with the provider. The provider's answer decides;
// the asserted status is only compared and logged.
func (s *PurchaseService) Confirm(ctx context.Context, userID, purchaseID uuid.UUID, in ConfirmInput) (model.PurchaseStatus, error) {
	purchase, err := s.Get(ctx, userID, purchaseID)
	if err != nil {
		return "", err
	}

	if in.Provider != purchase.PaymentProvider {
		return "", domainErrors.NewValidationError("provider", "does not match the purchase")
	}

	if purchase.Status.IsTerminal() {
		return purchase.Status, nil
	}

	ref, err := provider.ParseReference(purchase.PaymentProvider, in.ExternalPaymentID)
	if err != nil {
		return "", err
	}

	result, err := s.querier.QueryStatus(ctx, ref)
	if err != nil {
		return "", err
	}

	if result.PurchaseReference != purchase.ID.String() {
		s.logger.Warn("Confirmation references a payment for another purchase",
			zap.String("purchase_id", purchase.ID.String()),
			zap.String("user_id", userID.String()),
			zap.String("external_id", in.ExternalPaymentID),
			zap.String("payment_purchase_reference", result.PurchaseReference))
		return "", domainErrors.ErrForbidden
	}
	if result.AmountMinor > 0 && result.AmountMinor != purchase.PriceMinor {
		s.logger.Warn("Confirmation amount does not match purchase",
			zap.String("purchase_id", purchase.ID.String()),
			zap.Int64("expected", purchase.PriceMinor),
			zap.Int64("actual", result.AmountMinor))
		return "", domainErrors.ErrForbidden
	}

	if asserted := assertedOutcome(in.AssertedStatus); asserted != "" && asserted != result.Outcome {
		s.logger.Info("Asserted status differs from provider",
			zap.String("purchase_id", purchase.ID.String()),
			zap.String("asserted", in.AssertedStatus),
			zap.String("provider_status", result.RawStatus))
	}

	if !purchase.HasExternalID() {
		if err := s.purchases.AttachExternalID(ctx, purchase.ID, in.ExternalPaymentID); err != nil &&
			!errors.Is(err, domainErrors.ErrExternalIDConflict) {
			return "", err
		}
	}

	return applyOutcome(ctx, s.reconciler, purchase, result)
}

func assertedOutcome(status string) provider.Outcome {
	switch strings.ToLower(status) {
	case "confirmed", "paid", "approved", "succeeded":
		return provider.OutcomePaid
	case "failed", "rejected", "cancelled", "canceled", "expired":
		return provider.OutcomeNotPaid
	}
	return ""
}

// resolveFromProvider queries the stored reference and applies a final answer
func resolveFromProvider(ctx context.Context, querier provider.StatusQuerier, reconciler Resolver, purchase *model.CreditPurchase, logger *zap.Logger) (model.PurchaseStatus, error) {
	ref, err := provider.ParseReference(purchase.PaymentProvider, purchase.ExternalID())
	if err != nil {
		return "", err
	}

	result, err := querier.QueryStatus(ctx, ref)
	if err != nil {
		return "", err
	}

	if result.PurchaseReference != "" && result.PurchaseReference != purchase.ID.String() {
		logger.Error("Stored reference points at another purchase",
			zap.String("purchase_id", purchase.ID.String()),
			zap.String("external_id", ref.ID),
			zap.String("payment_purchase_reference", result.PurchaseReference))
		return purchase.Status, nil
	}

	return applyOutcome(ctx, reconciler, purchase, result)
}

func applyOutcome(ctx context.Context, reconciler Resolver, purchase *model.CreditPurchase, result *provider.StatusResult) (model.PurchaseStatus, error) {
	var observed ObservedOutcome
	switch result.Outcome {
	case provider.OutcomePaid:
		observed = ObservedPaid
	case provider.OutcomeNotPaid:
		observed = ObservedFailed
	default:
		return model.PurchaseStatusPending, nil
	}

	res, err := reconciler.Resolve(ctx, purchase.ID, observed)
	if err != nil {
		return "", err
	}
	return res.Status, nil
}
