package config

import (
	"fmt"

	pkgconfig "github.com/wekeepgrowing/semo-credits/pkg/config"
	"github.com/wekeepgrowing/semo-credits/pkg/logger"
)

// ServiceName is the config file name and the env override prefix (CREDITS_...).
const ServiceName = "credits"

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Log      logger.Config  `yaml:"log"`

	// File is the config file that was read.
	File string `yaml:"-"`
}

// LoadConfig reads configs/{APP_ENV}/credits.yaml (or CONFIG_PATH) with env overrides applied.
func LoadConfig() (*Config, error) {
	cfg := Default()
	file, err := pkgconfig.Load(ServiceName, cfg)
	if err != nil {
		return nil, err
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Service.Currency == "" {
		return fmt.Errorf("service.currency is required")
	}
	if c.Service.Supabase.JWTSecret == "" {
		return fmt.Errorf("service.supabase.jwt_secret is required")
	}
	if c.Service.Stripe.SecretKey == "" && c.Service.MercadoPago.AccessToken == "" {
		return fmt.Errorf("at least one payment provider must be configured")
	}
	return nil
}
