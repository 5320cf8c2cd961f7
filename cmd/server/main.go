package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-credits/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-credits/internal/app"
	"github.com/wekeepgrowing/semo-credits/internal/config"
	grpcServer "github.com/wekeepgrowing/semo-credits/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/semo-credits/internal/infrastructure/http"
	"github.com/wekeepgrowing/semo-credits/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Configuration loaded",
		zap.String("file", cfg.File),
		zap.String("environment", cfg.Service.Environment))

	application, err := app.New(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Handlers{
		Purchase:  handlers.NewPurchaseHandler(zapLogger, application.Purchases),
		Webhook:   handlers.NewWebhookHandler(zapLogger, application.Webhooks),
		Readiness: application.ReadinessChecks(),
	})

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := grpcSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
