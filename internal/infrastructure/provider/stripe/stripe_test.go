package stripe

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

const testWebhookSecret = "whsec_test_secret"

// MockSessionAPI is a mock implementation of sessionAPI
type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

// MockPaymentIntentAPI is a mock implementation of paymentIntentAPI
type MockPaymentIntentAPI struct {
	mock.Mock
}

func (m *MockPaymentIntentAPI) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func newTestProvider() (*StripeProvider, *MockSessionAPI, *MockPaymentIntentAPI) {
	sessions := &MockSessionAPI{}
	intents := &MockPaymentIntentAPI{}
	return newStripeProvider(sessions, intents, testWebhookSecret, time.Second, zap.NewNop()), sessions, intents
}

func signedHeaders(t *testing.T, payload []byte, secret string) http.Header {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	h := http.Header{}
	h.Set(SignatureHeader, fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return h
}

func TestQueryStatus_CheckoutSession(t *testing.T) {
	tests := []struct {
		name    string
		session *stripe.CheckoutSession
		want    provider.Outcome
	}{
		{
			name:    "paid",
			session: &stripe.CheckoutSession{ID: "cs_1", Status: stripe.CheckoutSessionStatusComplete, PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid},
			want:    provider.OutcomePaid,
		},
		{
			name:    "no payment required",
			session: &stripe.CheckoutSession{ID: "cs_1", Status: stripe.CheckoutSessionStatusComplete, PaymentStatus: stripe.CheckoutSessionPaymentStatusNoPaymentRequired},
			want:    provider.OutcomePaid,
		},
		{
			name:    "expired",
			session: &stripe.CheckoutSession{ID: "cs_1", Status: stripe.CheckoutSessionStatusExpired, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid},
			want:    provider.OutcomeNotPaid,
		},
		{
			name:    "boleto awaiting settlement",
			session: &stripe.CheckoutSession{ID: "cs_1", Status: stripe.CheckoutSessionStatusComplete, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid},
			want:    provider.OutcomeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, sessions, _ := newTestProvider()
			tt.session.Metadata = map[string]string{purchaseIDKey: "purchase-1"}
			tt.session.AmountTotal = 9990
			sessions.On("Get", "cs_1", mock.AnythingOfType("*stripe.CheckoutSessionParams")).Return(tt.session, nil)

			result, err := p.QueryStatus(context.Background(), provider.Reference{
				Provider: model.PaymentProviderStripe, Kind: provider.KindCheckoutSession, ID: "cs_1",
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Equal(t, "purchase-1", result.PurchaseReference)
			assert.Equal(t, int64(9990), result.AmountMinor)
			sessions.AssertExpectations(t)
		})
	}
}

func TestQueryStatus_PaymentIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent *stripe.PaymentIntent
		want   provider.Outcome
	}{
		{"succeeded", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusSucceeded}, provider.OutcomePaid},
		{"canceled", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusCanceled}, provider.OutcomeNotPaid},
		{"declined", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresPaymentMethod, LastPaymentError: &stripe.Error{Msg: "card declined"}}, provider.OutcomeNotPaid},
		{"awaiting method", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, provider.OutcomeUnknown},
		{"processing", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusProcessing}, provider.OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, intents := newTestProvider()
			intents.On("Get", "pi_1", mock.AnythingOfType("*stripe.PaymentIntentParams")).Return(tt.intent, nil)

			result, err := p.QueryStatus(context.Background(), provider.Reference{
				Provider: model.PaymentProviderStripe, Kind: provider.KindPaymentIntent, ID: "pi_1",
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
		})
	}
}

func TestQueryStatus_Errors(t *testing.T) {
	ref := provider.Reference{Provider: model.PaymentProviderStripe, Kind: provider.KindCheckoutSession, ID: "cs_missing"}

	t.Run("not found is permanent", func(t *testing.T) {
		p, sessions, _ := newTestProvider()
		sessions.On("Get", "cs_missing", mock.Anything).Return(nil, &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing})

		_, err := p.QueryStatus(context.Background(), ref)
		assert.ErrorIs(t, err, provider.ErrInvalidReference)
	})

	t.Run("server error is retryable", func(t *testing.T) {
		p, sessions, _ := newTestProvider()
		sessions.On("Get", "cs_missing", mock.Anything).Return(nil, &stripe.Error{HTTPStatusCode: 503})

		_, err := p.QueryStatus(context.Background(), ref)
		assert.ErrorIs(t, err, provider.ErrProviderUnavailable)
	})

	t.Run("network error is retryable", func(t *testing.T) {
		p, sessions, _ := newTestProvider()
		sessions.On("Get", "cs_missing", mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout"))

		_, err := p.QueryStatus(context.Background(), ref)
		assert.ErrorIs(t, err, provider.ErrProviderUnavailable)
	})

	t.Run("foreign reference", func(t *testing.T) {
		p, _, _ := newTestProvider()
		_, err := p.QueryStatus(context.Background(), provider.Reference{Provider: model.PaymentProviderMercadoPago, Kind: provider.KindPayment, ID: "1"})
		assert.ErrorIs(t, err, provider.ErrInvalidReference)
	})
}

func TestCreateCheckout(t *testing.T) {
	p, sessions, _ := newTestProvider()
	purchaseID := uuid.New()

	sessions.On("New", mock.MatchedBy(func(params *stripe.CheckoutSessionParams) bool {
		return *params.ClientReferenceID == purchaseID.String() &&
			params.Metadata[purchaseIDKey] == purchaseID.String() &&
			params.PaymentIntentData.Metadata[purchaseIDKey] == purchaseID.String() &&
			*params.IdempotencyKey == purchaseID.String() &&
			*params.PaymentMethodTypes[0] == "boleto" &&
			*params.LineItems[0].PriceData.UnitAmount == 9990
	})).Return(&stripe.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new"}, nil)

	session, err := p.CreateCheckout(context.Background(), &provider.CheckoutRequest{
		PurchaseID:    purchaseID,
		UserID:        uuid.New(),
		Description:   "1000 credits",
		PriceMinor:    9990,
		Currency:      "brl",
		PaymentMethod: model.PaymentMethodBoleto,
		SuccessURL:    "https://app.example.com/ok",
		CancelURL:     "https://app.example.com/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_new", session.ExternalID)
	sessions.AssertExpectations(t)
}

func TestVerifyWebhook(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantSignal provider.Signal
		wantKind   provider.ReferenceKind
	}{
		{
			name:       "completed and paid",
			payload:    `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"paid","metadata":{"purchase_id":"p-1"}}}}`,
			wantSignal: provider.SignalPaid,
			wantKind:   provider.KindCheckoutSession,
		},
		{
			name:       "completed but async method pending",
			payload:    `{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"unpaid","client_reference_id":"p-1"}}}`,
			wantSignal: provider.SignalIgnore,
			wantKind:   provider.KindCheckoutSession,
		},
		{
			name:       "async payment succeeded",
			payload:    `{"id":"evt_3","type":"checkout.session.async_payment_succeeded","data":{"object":{"id":"cs_1","payment_status":"paid","metadata":{"purchase_id":"p-1"}}}}`,
			wantSignal: provider.SignalPaid,
			wantKind:   provider.KindCheckoutSession,
		},
		{
			name:       "session expired",
			payload:    `{"id":"evt_4","type":"checkout.session.expired","data":{"object":{"id":"cs_1","metadata":{"purchase_id":"p-1"}}}}`,
			wantSignal: provider.SignalFailed,
			wantKind:   provider.KindCheckoutSession,
		},
		{
			name:       "payment intent failed",
			payload:    `{"id":"evt_5","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","metadata":{"purchase_id":"p-1"}}}}`,
			wantSignal: provider.SignalFailed,
			wantKind:   provider.KindPaymentIntent,
		},
		{
			name:       "payment intent succeeded",
			payload:    `{"id":"evt_6","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","metadata":{"purchase_id":"p-1"}}}}`,
			wantSignal: provider.SignalPaid,
			wantKind:   provider.KindPaymentIntent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestProvider()
			payload := []byte(tt.payload)

			event, err := p.VerifyWebhook(payload, signedHeaders(t, payload, testWebhookSecret))

			require.NoError(t, err)
			assert.Equal(t, tt.wantSignal, event.Signal)
			assert.Equal(t, "p-1", event.PurchaseReference)
			require.NotNil(t, event.Reference)
			assert.Equal(t, tt.wantKind, event.Reference.Kind)
		})
	}

	t.Run("unrelated event type is ignored", func(t *testing.T) {
		p, _, _ := newTestProvider()
		payload := []byte(`{"id":"evt_9","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

		event, err := p.VerifyWebhook(payload, signedHeaders(t, payload, testWebhookSecret))

		require.NoError(t, err)
		assert.Equal(t, provider.SignalIgnore, event.Signal)
		assert.Nil(t, event.Reference)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		p, _, _ := newTestProvider()
		payload := []byte(paidSessionPayload)

		_, err := p.VerifyWebhook(payload, signedHeaders(t, payload, "whsec_other"))

		var sigErr *domainErrors.SignatureVerificationError
		assert.ErrorAs(t, err, &sigErr)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		p, _, _ := newTestProvider()

		_, err := p.VerifyWebhook([]byte(paidSessionPayload), http.Header{})

		var sigErr *domainErrors.SignatureVerificationError
		assert.ErrorAs(t, err, &sigErr)
	})
}

func TestVerifyWebhook_EditedBody(t *testing.T) {
	p, _, _ := newTestProvider()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(`{"id":"evt_7","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"unpaid","metadata":{"purchase_id":"p-1"}}}}`),
		Secret:  testWebhookSecret,
	})
	headers := http.Header{}
	headers.Set(SignatureHeader, signed.Header)

	event, err := p.VerifyWebhook(signed.Payload, headers)
	require.NoError(t, err)
	assert.Equal(t, provider.SignalIgnore, event.Signal)

	// "unpaid" -> "_npaid": one byte changed, same signature header
	tampered := bytes.Replace(signed.Payload, []byte(`"unpaid"`), []byte(`"_npaid"`), 1)
	require.NotEqual(t, signed.Payload, tampered)

	event, err = p.VerifyWebhook(tampered, headers)

	assert.Nil(t, event)
	var sigErr *domainErrors.SignatureVerificationError
	assert.ErrorAs(t, err, &sigErr)
}

const paidSessionPayload = `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"paid"}}}`
