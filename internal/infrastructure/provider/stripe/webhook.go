package stripe

import (
	"encoding/json"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

// SignatureHeader carries Stripe's webhook signature
const SignatureHeader = "Stripe-Signature"

// VerifyWebhook checks the signature and turns the event into a provider-neutral signal
func (s *StripeProvider) VerifyWebhook(payload []byte, headers http.Header) (*provider.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, headers.Get(SignatureHeader), s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, domainErrors.NewSignatureVerificationError(string(model.PaymentProviderStripe), err)
	}

	out := &provider.WebhookEvent{
		Provider:  model.PaymentProviderStripe,
		EventID:   event.ID,
		EventType: string(event.Type),
		Signal:    provider.SignalIgnore,
		Payload:   payload,
	}
	if event.Data == nil {
		return out, nil
	}

	switch event.Type {
	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, domainErrors.NewValidationError("payload", "malformed checkout session")
		}
		out.PurchaseReference = sessionPurchaseID(&session)
		out.Reference = &provider.Reference{Provider: model.PaymentProviderStripe, Kind: provider.KindCheckoutSession, ID: session.ID}
		out.Signal = sessionSignal(string(event.Type), &session)

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, domainErrors.NewValidationError("payload", "malformed payment intent")
		}
		out.PurchaseReference = intent.Metadata[purchaseIDKey]
		out.Reference = &provider.Reference{Provider: model.PaymentProviderStripe, Kind: provider.KindPaymentIntent, ID: intent.ID}
		out.Signal = provider.SignalFailed
		if event.Type == "payment_intent.succeeded" {
			out.Signal = provider.SignalPaid
		}
	}

	return out, nil
}

// sessionSignal: a completed session is only paid for synchronous methods; boleto and pix
// complete first and settle later through async_payment_succeeded / async_payment_failed.
func sessionSignal(eventType string, session *stripe.CheckoutSession) provider.Signal {
	switch eventType {
	case "checkout.session.completed":
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
			return provider.SignalPaid
		}
		return provider.SignalIgnore
	case "checkout.session.async_payment_succeeded":
		return provider.SignalPaid
	default:
		return provider.SignalFailed
	}
}
