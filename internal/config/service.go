package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	ClientURL   string `yaml:"client_url"`
	// Currency is the single currency every purchase is priced in (ISO 4217, lower case).
	Currency     string `yaml:"currency"`
	PackagesFile string `yaml:"packages_file"`

	Stripe      StripeConfig      `yaml:"stripe"`
	MercadoPago MercadoPagoConfig `yaml:"mercado_pago"`
	Supabase    SupabaseConfig    `yaml:"supabase"`

	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	// PollCooldown is the minimum gap between provider queries for one purchase.
	PollCooldown time.Duration `yaml:"poll_cooldown"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type MercadoPagoConfig struct {
	AccessToken     string `yaml:"access_token"`
	WebhookSecret   string `yaml:"webhook_secret"`
	BaseURL         string `yaml:"base_url"`
	NotificationURL string `yaml:"notification_url"`
}

type SupabaseConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}
