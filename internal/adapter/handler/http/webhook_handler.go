package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/infrastructure/provider"
	"github.com/wekeepgrowing/semo-credits/internal/usecase"
	apperrors "github.com/wekeepgrowing/semo-credits/pkg/errors"
)

// maxWebhookBody bounds what is read from a delivery
const maxWebhookBody = 1 << 20

// WebhookUsecase is implemented by usecase.WebhookService
type WebhookUsecase interface {
	Handle(ctx context.Context, p model.PaymentProvider, payload []byte, headers http.Header) (*usecase.WebhookResult, error)
}

// WebhookHandler receives payment provider notifications
type WebhookHandler struct {
	logger   *zap.Logger
	webhooks WebhookUsecase
}

func NewWebhookHandler(logger *zap.Logger, webhooks WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{logger: logger, webhooks: webhooks}
}

// HandleWebhook handles POST /webhooks/payment. The provider is picked by its signature header.
// 200 acknowledges the delivery, 4xx rejects it for good, 5xx asks the provider to retry.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "Error reading request body")
	}

	headers := c.Request().Header
	p, ok := provider.DetectWebhookProvider(headers)
	if !ok {
		return h.fail(domainErrors.NewSignatureVerificationError("unknown", nil), "Webhook without a known signature header")
	}

	result, err := h.webhooks.Handle(c.Request().Context(), p, body, headers)
	if err != nil {
		return h.fail(err, "Webhook processing failed", zap.String("provider", string(p)))
	}

	h.logger.Info("Webhook Event Received",
		zap.String("provider", string(p)),
		zap.String("event_id", result.EventID),
		zap.String("action", string(result.Action)),
		zap.String("status", string(result.Status)),
	)

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *WebhookHandler) fail(err error, msg string, fields ...zap.Field) error {
	appErr := toAppError(err)
	apperrors.LogError(h.logger, appErr, msg, fields...)
	return appErr
}
