package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

// Outcome is a provider's authoritative answer about a payment
type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeNotPaid Outcome = "not_paid"
	// OutcomeUnknown means the payment is still in flight (e.g. boleto awaiting settlement)
	OutcomeUnknown Outcome = "unknown"
)

// ReferenceKind tells which provider object an external id points at
type ReferenceKind string

const (
	KindCheckoutSession ReferenceKind = "checkout_session"
	KindPaymentIntent   ReferenceKind = "payment_intent"
	KindPreference      ReferenceKind = "preference"
	KindPayment         ReferenceKind = "payment"
)

// Reference is a parsed external payment id. Build it with ParseReference.
type Reference struct {
	Provider model.PaymentProvider
	Kind     ReferenceKind
	ID       string
}

func (r Reference) String() string {
	return string(r.Provider) + ":" + string(r.Kind) + ":" + r.ID
}

// ParseReference classifies an external id for the given provider.
//
//	stripe:       cs_...  checkout session, pi_... payment intent
//	mercado_pago: digits  payment, <collector>-<uuid> preference
func ParseReference(p model.PaymentProvider, externalID string) (Reference, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return Reference{}, NewInvalidReferenceError("empty_reference", "external payment id is empty", "")
	}

	switch p {
	case model.PaymentProviderStripe:
		switch {
		case strings.HasPrefix(id, "cs_"):
			return Reference{Provider: p, Kind: KindCheckoutSession, ID: id}, nil
		case strings.HasPrefix(id, "pi_"):
			return Reference{Provider: p, Kind: KindPaymentIntent, ID: id}, nil
		}
	case model.PaymentProviderMercadoPago:
		switch {
		case isDigits(id):
			return Reference{Provider: p, Kind: KindPayment, ID: id}, nil
		case strings.Contains(id, "-"):
			return Reference{Provider: p, Kind: KindPreference, ID: id}, nil
		}
	default:
		return Reference{}, NewInvalidReferenceError("unknown_provider", "unknown payment provider", string(p))
	}

	return Reference{}, NewInvalidReferenceError("unrecognized_reference", "external payment id has an unrecognized format", id)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// StatusResult is the normalized answer of a status query
type StatusResult struct {
	Outcome Outcome
	// RawStatus is the provider's own status string, kept for logs
	RawStatus string
	// PurchaseReference is the purchase id the provider object was created for
	// (Stripe metadata.purchase_id / client_reference_id, Mercado Pago external_reference)
	PurchaseReference string
	// PaymentID is the provider object id that was actually inspected
	PaymentID string
	// AmountMinor is the charged amount in minor units, 0 when the provider did not report one
	AmountMinor int64
	Currency    string
}

// StatusQuerier asks a provider for the current state of a payment
type StatusQuerier interface {
	QueryStatus(ctx context.Context, ref Reference) (*StatusResult, error)
}

// CheckoutRequest describes the hosted checkout to open for a pending purchase
type CheckoutRequest struct {
	PurchaseID    uuid.UUID
	UserID        uuid.UUID
	Description   string
	PriceMinor    int64
	Currency      string
	PaymentMethod model.PaymentMethod
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider object the user is redirected to
type CheckoutSession struct {
	ExternalID string
	URL        string
}

// CheckoutCreator opens hosted checkouts
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
}

// Signal is what a webhook notification says about a payment
type Signal string

const (
	SignalPaid   Signal = "paid"
	SignalFailed Signal = "failed"
	// SignalQuery means the notification carries no status and the provider must be queried
	SignalQuery Signal = "query"
	// SignalIgnore covers event types that never change a purchase
	SignalIgnore Signal = "ignore"
)

// WebhookEvent is a verified, provider-neutral notification
type WebhookEvent struct {
	Provider  model.PaymentProvider
	EventID   string
	EventType string
	Signal    Signal
	// PurchaseReference is the purchase id carried by the event, empty when absent
	PurchaseReference string
	// Reference is the provider object the event is about
	Reference *Reference
	Payload   []byte
}

// WebhookVerifier authenticates and decodes raw webhook deliveries
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, headers http.Header) (*WebhookEvent, error)
}

// Gateway is everything the service needs from one provider
type Gateway interface {
	StatusQuerier
	CheckoutCreator
	WebhookVerifier
	Name() model.PaymentProvider
}
