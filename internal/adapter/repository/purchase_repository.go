package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-credits/internal/domain/repository"
)

var validate = validator.New()

// purchaseRepository implements the PurchaseRepository interface
type purchaseRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPurchaseRepository creates a new purchase repository instance
func NewPurchaseRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PurchaseRepository {
	return &purchaseRepository{
		db:     db,
		logger: logger,
	}
}

// ValidateNewPurchase rejects purchases that can never be stored
func ValidateNewPurchase(in *model.NewPurchase) error {
	if in == nil {
		return domainErrors.NewValidationError("purchase", "is required")
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domainErrors.NewValidationError(verrs[0].Field(), "failed on '"+verrs[0].Tag()+"'")
		}
		return domainErrors.NewValidationError("purchase", err.Error())
	}
	if !in.PaymentProvider.IsValid() {
		return domainErrors.NewValidationError("PaymentProvider", "unknown provider "+string(in.PaymentProvider))
	}
	if !in.PaymentMethod.IsValid() {
		return domainErrors.NewValidationError("PaymentMethod", "unknown method "+string(in.PaymentMethod))
	}
	return nil
}

// Create stores a pending purchase with total credits fixed at base + bonus
func (r *purchaseRepository) Create(ctx context.Context, in *model.NewPurchase) (*model.CreditPurchase, error) {
	if err := ValidateNewPurchase(in); err != nil {
		return nil, err
	}

	now := time.Now()
	purchase := &model.CreditPurchase{
		ID:              uuid.New(),
		UserID:          in.UserID,
		PackageID:       in.PackageID,
		BaseCredits:     in.BaseCredits,
		BonusCredits:    in.BonusCredits,
		TotalCredits:    in.BaseCredits + in.BonusCredits,
		PriceMinor:      in.PriceMinor,
		Currency:        in.Currency,
		PaymentProvider: in.PaymentProvider,
		PaymentMethod:   in.PaymentMethod,
		Status:          model.PurchaseStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.ExternalPaymentID != "" {
		externalID := in.ExternalPaymentID
		purchase.ExternalPaymentID = &externalID
	}

	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrExternalIDConflict
		}
		r.logger.Error("Failed to create purchase",
			zap.String("user_id", in.UserID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	return purchase, nil
}

// GetByID retrieves a purchase by its ID
func (r *purchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CreditPurchase, error) {
	var purchase model.CreditPurchase

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return &purchase, nil
}

// GetByExternalID retrieves a purchase by provider reference
func (r *purchaseRepository) GetByExternalID(ctx context.Context, provider model.PaymentProvider, externalID string) (*model.CreditPurchase, error) {
	var purchase model.CreditPurchase

	err := r.db.WithContext(ctx).
		Where("payment_provider = ? AND external_payment_id = ?", provider, externalID).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to get purchase by external id: %w", err)
	}

	return &purchase, nil
}

// ClaimPendingForTransition runs
//
//	UPDATE credit_purchases SET status = ?, ... WHERE id = ? AND status = 'pending' RETURNING *
//
// Concurrent claims for the same purchase serialize on the row; only one sees a row back.
func (r *purchaseRepository) ClaimPendingForTransition(ctx context.Context, id uuid.UUID, target model.PurchaseStatus) (*model.CreditPurchase, error) {
	if !target.IsTerminal() {
		return nil, domainErrors.NewValidationError("status", "transition target must be terminal")
	}

	var purchase model.CreditPurchase
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&purchase).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, model.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":      target,
			"updated_at":  now,
			"resolved_at": now,
		})
	if result.Error != nil {
		r.logger.Error("Failed to claim purchase",
			zap.String("purchase_id", id.String()),
			zap.String("status", string(target)),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to claim purchase: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, domainErrors.ErrPurchaseNotFound
	}

	return &purchase, nil
}

// AttachExternalID stores the provider reference when none is set.
// Attaching the same id twice is a no-op.
func (r *purchaseRepository) AttachExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	if externalID == "" {
		return domainErrors.NewValidationError("external_payment_id", "is required")
	}

	result := r.db.WithContext(ctx).
		Model(&model.CreditPurchase{}).
		Where("id = ? AND external_payment_id IS NULL", id).
		Updates(map[string]interface{}{
			"external_payment_id": externalID,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainErrors.ErrExternalIDConflict
		}
		return fmt.Errorf("failed to attach external payment id: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.ExternalID() == externalID {
		return nil
	}
	return domainErrors.ErrExternalIDConflict
}

// ListPendingOlderThan returns stale pending purchases that can be checked with the provider
func (r *purchaseRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.CreditPurchase, error) {
	var purchases []*model.CreditPurchase

	query := r.db.WithContext(ctx).
		Where("status = ? AND external_payment_id IS NOT NULL AND created_at < ?", model.PurchaseStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending purchases: %w", err)
	}
	return purchases, nil
}

// ListConfirmedWithoutGrant finds confirmed purchases whose credits were never applied
func (r *purchaseRepository) ListConfirmedWithoutGrant(ctx context.Context, limit int) ([]*model.CreditPurchase, error) {
	var purchases []*model.CreditPurchase

	query := r.db.WithContext(ctx).
		Where("status = ?", model.PurchaseStatusConfirmed).
		Where("NOT EXISTS (SELECT 1 FROM credit_grants g WHERE g.purchase_id = credit_purchases.id)").
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list ungranted purchases: %w", err)
	}
	return purchases, nil
}
