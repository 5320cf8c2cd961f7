package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

// purchaseIDKey is the metadata key linking Stripe objects back to a purchase
const purchaseIDKey = "purchase_id"

type sessionAPI interface {
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type paymentIntentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeProvider implements provider.Gateway on top of Checkout Sessions and PaymentIntents
type StripeProvider struct {
	sessions      sessionAPI
	intents       paymentIntentAPI
	webhookSecret string
	timeout       time.Duration
	logger        *zap.Logger
}

// NewStripeProvider creates a new Stripe provider
func NewStripeProvider(secretKey, webhookSecret string, timeout time.Duration, logger *zap.Logger) *StripeProvider {
	sc := client.New(secretKey, nil)
	return newStripeProvider(sc.CheckoutSessions, sc.PaymentIntents, webhookSecret, timeout, logger)
}

func newStripeProvider(sessions sessionAPI, intents paymentIntentAPI, webhookSecret string, timeout time.Duration, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		sessions:      sessions,
		intents:       intents,
		webhookSecret: webhookSecret,
		timeout:       timeout,
		logger:        logger.With(zap.String("provider", string(model.PaymentProviderStripe))),
	}
}

// Name returns the provider name
func (s *StripeProvider) Name() model.PaymentProvider {
	return model.PaymentProviderStripe
}

func (s *StripeProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mapError sorts Stripe failures into retryable and permanent ones.
// Anything that is not a definite "no such object / bad id" answer is treated as retryable.
func mapError(err error, ref string) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch se.HTTPStatusCode {
		case http.StatusNotFound, http.StatusBadRequest:
			return provider.NewInvalidReferenceError(string(se.Code), "stripe rejected reference "+ref, se.Msg)
		default:
			return provider.NewUnavailableError(string(se.Code), "stripe request failed", se.Msg)
		}
	}
	return provider.NewUnavailableError("network_error", "stripe request failed", err.Error())
}
