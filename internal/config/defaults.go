package config

import (
	"time"

	"github.com/wekeepgrowing/semo-credits/pkg/logger"
)

// Default returns the settings used for keys missing from the config file.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:            ServiceName,
			Environment:     "dev",
			Currency:        "brl",
			PackagesFile:    "configs/packages.yaml",
			ProviderTimeout: 10 * time.Second,
			PollCooldown:    3 * time.Second,
			MercadoPago: MercadoPagoConfig{
				BaseURL: "https://api.mercadopago.com",
			},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Server: ServerConfig{
			HTTP: HTTPConfig{Host: "0.0.0.0", Port: 8080, RequestTimeout: 15 * time.Second},
			GRPC: GRPCConfig{Host: "0.0.0.0", Port: 9090},
		},
		Log: logger.Config{Level: "info", Format: "json", Output: "stdout"},
	}
}
