package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		provider model.PaymentProvider
		id       string
		kind     ReferenceKind
		wantErr  bool
	}{
		{"stripe checkout session", model.PaymentProviderStripe, "cs_test_a1b2", KindCheckoutSession, false},
		{"stripe payment intent", model.PaymentProviderStripe, "pi_3Nx", KindPaymentIntent, false},
		{"stripe unknown prefix", model.PaymentProviderStripe, "ch_123", "", true},
		{"mercado pago payment", model.PaymentProviderMercadoPago, "1319804287", KindPayment, false},
		{"mercado pago preference", model.PaymentProviderMercadoPago, "202809963-920c288b-4ebb-40be-966f-700250fa5370", KindPreference, false},
		{"mercado pago garbage", model.PaymentProviderMercadoPago, "abc", "", true},
		{"empty", model.PaymentProviderStripe, "  ", "", true},
		{"unknown provider", model.PaymentProvider("paypal"), "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.provider, tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidReference)
				assert.False(t, IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.provider, ref.Provider)
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	err := fmt.Errorf("query: %w", NewUnavailableError("http_503", "provider returned 503", ""))

	assert.True(t, IsRetryable(err))
	assert.False(t, errors.Is(err, ErrInvalidReference))

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "http_503", pe.Code)
	assert.Equal(t, "provider returned 503", pe.Error())
}
