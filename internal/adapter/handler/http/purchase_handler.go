package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-credits/internal/usecase"
	apperrors "github.com/wekeepgrowing/semo-credits/pkg/errors"
)

// PurchaseUsecase is implemented by usecase.PurchaseService
type PurchaseUsecase interface {
	Packages() []usecase.CreditPackage
	Create(ctx context.Context, userID uuid.UUID, in usecase.CreatePurchaseInput) (*usecase.CreatePurchaseResult, error)
	Get(ctx context.Context, userID, purchaseID uuid.UUID) (*model.CreditPurchase, error)
	Poll(ctx context.Context, userID, purchaseID uuid.UUID) (model.PurchaseStatus, error)
	Confirm(ctx context.Context, userID, purchaseID uuid.UUID, in usecase.ConfirmInput) (model.PurchaseStatus, error)
}

// PurchaseHandler handles credit purchase HTTP requests
type PurchaseHandler struct {
	logger    *zap.Logger
	purchases PurchaseUsecase
}

// NewPurchaseHandler creates a new purchase handler instance
func NewPurchaseHandler(logger *zap.Logger, purchases PurchaseUsecase) *PurchaseHandler {
	return &PurchaseHandler{logger: logger, purchases: purchases}
}

type createPurchaseRequest struct {
	PackageID     string `json:"packageId" validate:"required,max=100"`
	Provider      string `json:"provider" validate:"required,oneof=stripe mercado_pago"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=credit_card pix boleto debit"`
}

type confirmPurchaseRequest struct {
	ExternalPaymentID string `json:"externalPaymentId" validate:"required,max=255"`
	AssertedStatus    string `json:"assertedStatus" validate:"required,max=50"`
	Provider          string `json:"provider" validate:"required,oneof=stripe mercado_pago"`
}

type createPurchaseResponse struct {
	PurchaseID  uuid.UUID            `json:"purchaseId"`
	Status      model.PurchaseStatus `json:"status"`
	CheckoutURL string               `json:"checkoutUrl"`
}

type purchaseResponse struct {
	ID              uuid.UUID            `json:"id"`
	PackageID       string               `json:"packageId,omitempty"`
	BaseCredits     int64                `json:"baseCredits"`
	BonusCredits    int64                `json:"bonusCredits"`
	TotalCredits    int64                `json:"totalCredits"`
	PriceMinor      int64                `json:"priceMinor"`
	Currency        string               `json:"currency"`
	PaymentProvider string               `json:"paymentProvider"`
	PaymentMethod   string               `json:"paymentMethod"`
	Status          model.PurchaseStatus `json:"status"`
	CreatedAt       time.Time            `json:"createdAt"`
	ResolvedAt      *time.Time           `json:"resolvedAt,omitempty"`
}

type statusResponse struct {
	Status model.PurchaseStatus `json:"status"`
}

func toPurchaseResponse(p *model.CreditPurchase) purchaseResponse {
	return purchaseResponse{
		ID:              p.ID,
		PackageID:       p.PackageID,
		BaseCredits:     p.BaseCredits,
		BonusCredits:    p.BonusCredits,
		TotalCredits:    p.TotalCredits,
		PriceMinor:      p.PriceMinor,
		Currency:        p.Currency,
		PaymentProvider: string(p.PaymentProvider),
		PaymentMethod:   string(p.PaymentMethod),
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
		ResolvedAt:      p.ResolvedAt,
	}
}

// ListPackages handles GET /credits/packages
func (h *PurchaseHandler) ListPackages(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"packages": h.purchases.Packages()})
}

// CreatePurchase handles POST /credits/purchases
func (h *PurchaseHandler) CreatePurchase(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req createPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(err, "Invalid purchase request", user.UserID)
	}

	result, err := h.purchases.Create(c.Request().Context(), user.UserID, usecase.CreatePurchaseInput{
		PackageID:     req.PackageID,
		Provider:      model.PaymentProvider(req.Provider),
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		return h.fail(err, "Failed to create purchase", user.UserID)
	}

	return c.JSON(http.StatusCreated, createPurchaseResponse{
		PurchaseID:  result.Purchase.ID,
		Status:      result.Purchase.Status,
		CheckoutURL: result.CheckoutURL,
	})
}

// GetPurchase handles GET /credits/purchases/:id
func (h *PurchaseHandler) GetPurchase(c echo.Context) error {
	user, purchaseID, err := h.userAndPurchase(c)
	if err != nil {
		return err
	}

	purchase, err := h.purchases.Get(c.Request().Context(), user.UserID, purchaseID)
	if err != nil {
		return h.fail(err, "Failed to get purchase", user.UserID, zap.String("purchase_id", purchaseID.String()))
	}

	return c.JSON(http.StatusOK, toPurchaseResponse(purchase))
}

// PollPurchase handles POST /credits/purchases/:id/poll
func (h *PurchaseHandler) PollPurchase(c echo.Context) error {
	user, purchaseID, err := h.userAndPurchase(c)
	if err != nil {
		return err
	}

	status, err := h.purchases.Poll(c.Request().Context(), user.UserID, purchaseID)
	if err != nil {
		return h.fail(err, "Failed to poll purchase", user.UserID, zap.String("purchase_id", purchaseID.String()))
	}

	return c.JSON(http.StatusOK, statusResponse{Status: status})
}

// ConfirmPurchase handles POST /credits/purchases/:id/confirm
func (h *PurchaseHandler) ConfirmPurchase(c echo.Context) error {
	user, purchaseID, err := h.userAndPurchase(c)
	if err != nil {
		return err
	}

	var req confirmPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(err, "Invalid confirmation request", user.UserID)
	}

	status, err := h.purchases.Confirm(c.Request().Context(), user.UserID, purchaseID, usecase.ConfirmInput{
		ExternalPaymentID: req.ExternalPaymentID,
		AssertedStatus:    req.AssertedStatus,
		Provider:          model.PaymentProvider(req.Provider),
	})
	if err != nil {
		return h.fail(err, "Failed to confirm purchase", user.UserID, zap.String("purchase_id", purchaseID.String()))
	}

	return c.JSON(http.StatusOK, statusResponse{Status: status})
}

func (h *PurchaseHandler) userAndPurchase(c echo.Context) (*auth.AuthUser, uuid.UUID, error) {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, uuid.Nil, toAppError(domainErrors.NewValidationError("id", "must be a UUID"))
	}
	return user, purchaseID, nil
}

func (h *PurchaseHandler) fail(err error, msg string, userID uuid.UUID, fields ...zap.Field) error {
	appErr := toAppError(err)
	apperrors.LogError(h.logger, appErr, msg, append(fields, zap.String("user_id", userID.String()))...)
	return appErr
}
