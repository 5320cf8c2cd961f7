package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

// CreateCheckout opens a Checkout Session in payment mode.
// The purchase id travels as client_reference_id and as metadata on both the session and
// its PaymentIntent, so every webhook for either object can be traced back.
func (s *StripeProvider) CreateCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutSession, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	purchaseID := req.PurchaseID.String()
	metadata := map[string]string{
		purchaseIDKey: purchaseID,
		"user_id":     req.UserID.String(),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(purchaseID),
		Metadata:          metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
		PaymentMethodTypes: stripe.StringSlice([]string{paymentMethodType(req.PaymentMethod)}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.PriceMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(purchaseID)

	session, err := s.sessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("purchase_id", purchaseID),
			zap.Error(err))
		return nil, mapError(err, purchaseID)
	}

	s.logger.Info("Checkout session created",
		zap.String("purchase_id", purchaseID),
		zap.String("external_id", session.ID))

	return &provider.CheckoutSession{ExternalID: session.ID, URL: session.URL}, nil
}

func paymentMethodType(method model.PaymentMethod) string {
	switch method {
	case model.PaymentMethodPix:
		return "pix"
	case model.PaymentMethodBoleto:
		return "boleto"
	default:
		return "card"
	}
}
