package provider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/config"
	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

func TestNewRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Service.Stripe.SecretKey = "sk_test_123"
	cfg.Service.ProviderTimeout = time.Second

	r := NewRegistry(cfg, zap.NewNop())

	g, err := r.Gateway(model.PaymentProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentProviderStripe, g.Name())

	_, err = r.Gateway(model.PaymentProviderMercadoPago)
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotConfigured)

	_, err = r.QueryStatus(context.Background(), provider.Reference{Provider: model.PaymentProviderMercadoPago, Kind: provider.KindPayment, ID: "1"})
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotConfigured)
}

func TestDetectWebhookProvider(t *testing.T) {
	h := http.Header{}
	_, ok := DetectWebhookProvider(h)
	assert.False(t, ok)

	h.Set("Stripe-Signature", "t=1,v1=abc")
	p, ok := DetectWebhookProvider(h)
	assert.True(t, ok)
	assert.Equal(t, model.PaymentProviderStripe, p)

	h = http.Header{}
	h.Set("x-signature", "ts=1,v1=abc")
	p, ok = DetectWebhookProvider(h)
	assert.True(t, ok)
	assert.Equal(t, model.PaymentProviderMercadoPago, p)
}
