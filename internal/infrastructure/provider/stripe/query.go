package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

// QueryStatus retrieves the Checkout Session or PaymentIntent behind ref
func (s *StripeProvider) QueryStatus(ctx context.Context, ref provider.Reference) (*provider.StatusResult, error) {
	if ref.Provider != model.PaymentProviderStripe {
		return nil, provider.NewInvalidReferenceError("wrong_provider", "reference is not a stripe reference", ref.String())
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	switch ref.Kind {
	case provider.KindCheckoutSession:
		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		session, err := s.sessions.Get(ref.ID, params)
		if err != nil {
			s.logger.Warn("Failed to retrieve checkout session", zap.String("external_id", ref.ID), zap.Error(err))
			return nil, mapError(err, ref.ID)
		}
		return sessionResult(session), nil

	case provider.KindPaymentIntent:
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		intent, err := s.intents.Get(ref.ID, params)
		if err != nil {
			s.logger.Warn("Failed to retrieve payment intent", zap.String("external_id", ref.ID), zap.Error(err))
			return nil, mapError(err, ref.ID)
		}
		return paymentIntentResult(intent), nil
	}

	return nil, provider.NewInvalidReferenceError("unsupported_kind", "stripe cannot query this reference kind", ref.String())
}

// sessionResult: paid / no_payment_required -> Paid, expired -> NotPaid, otherwise in flight
func sessionResult(session *stripe.CheckoutSession) *provider.StatusResult {
	result := &provider.StatusResult{
		Outcome:           provider.OutcomeUnknown,
		RawStatus:         string(session.Status) + "/" + string(session.PaymentStatus),
		PurchaseReference: sessionPurchaseID(session),
		PaymentID:         session.ID,
		AmountMinor:       session.AmountTotal,
		Currency:          string(session.Currency),
	}

	switch {
	case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		result.Outcome = provider.OutcomePaid
	case session.Status == stripe.CheckoutSessionStatusExpired:
		result.Outcome = provider.OutcomeNotPaid
	}
	return result
}

// paymentIntentResult: succeeded -> Paid; canceled or a recorded failure -> NotPaid
func paymentIntentResult(intent *stripe.PaymentIntent) *provider.StatusResult {
	result := &provider.StatusResult{
		Outcome:           provider.OutcomeUnknown,
		RawStatus:         string(intent.Status),
		PurchaseReference: intent.Metadata[purchaseIDKey],
		PaymentID:         intent.ID,
		AmountMinor:       intent.Amount,
		Currency:          string(intent.Currency),
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Outcome = provider.OutcomePaid
	case stripe.PaymentIntentStatusCanceled:
		result.Outcome = provider.OutcomeNotPaid
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if intent.LastPaymentError != nil {
			result.Outcome = provider.OutcomeNotPaid
		}
	}
	return result
}

func sessionPurchaseID(session *stripe.CheckoutSession) string {
	if id := session.Metadata[purchaseIDKey]; id != "" {
		return id
	}
	return session.ClientReferenceID
}
