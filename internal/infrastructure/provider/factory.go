package provider

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/config"
	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
	mercadoPagoProvider "github.com/wekeepgrowing/semo-credits/internal/infrastructure/provider/mercadopago"
	stripeProvider "github.com/wekeepgrowing/semo-credits/internal/infrastructure/provider/stripe"
)

// Registry holds the configured gateways and routes calls by provider
type Registry struct {
	gateways map[model.PaymentProvider]provider.Gateway
}

// NewRegistry wires every provider that has credentials in config
func NewRegistry(cfg *config.Config, logger *zap.Logger) *Registry {
	r := &Registry{gateways: make(map[model.PaymentProvider]provider.Gateway)}

	if cfg.Service.Stripe.SecretKey != "" {
		r.Register(stripeProvider.NewStripeProvider(
			cfg.Service.Stripe.SecretKey,
			cfg.Service.Stripe.WebhookSecret,
			cfg.Service.ProviderTimeout,
			logger,
		))
	}

	if cfg.Service.MercadoPago.AccessToken != "" {
		r.Register(mercadoPagoProvider.NewMercadoPagoProvider(mercadoPagoProvider.Config{
			AccessToken:     cfg.Service.MercadoPago.AccessToken,
			WebhookSecret:   cfg.Service.MercadoPago.WebhookSecret,
			BaseURL:         cfg.Service.MercadoPago.BaseURL,
			NotificationURL: cfg.Service.MercadoPago.NotificationURL,
			Timeout:         cfg.Service.ProviderTimeout,
		}, logger))
	}

	for name := range r.gateways {
		logger.Info("Payment provider enabled", zap.String("provider", string(name)))
	}
	return r
}

// Register adds or replaces a gateway
func (r *Registry) Register(g provider.Gateway) {
	r.gateways[g.Name()] = g
}

// Gateway returns the gateway for p or ErrProviderNotConfigured
func (r *Registry) Gateway(p model.PaymentProvider) (provider.Gateway, error) {
	g, ok := r.gateways[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrProviderNotConfigured, p)
	}
	return g, nil
}

// QueryStatus routes to the provider named by the reference
func (r *Registry) QueryStatus(ctx context.Context, ref provider.Reference) (*provider.StatusResult, error) {
	g, err := r.Gateway(ref.Provider)
	if err != nil {
		return nil, err
	}
	return g.QueryStatus(ctx, ref)
}

// DetectWebhookProvider picks the provider from the signature header a delivery carries
func DetectWebhookProvider(headers http.Header) (model.PaymentProvider, bool) {
	switch {
	case headers.Get(stripeProvider.SignatureHeader) != "":
		return model.PaymentProviderStripe, true
	case headers.Get(mercadoPagoProvider.SignatureHeader) != "":
		return model.PaymentProviderMercadoPago, true
	}
	return "", false
}
