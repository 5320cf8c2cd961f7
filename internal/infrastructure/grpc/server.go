package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wekeepgrowing/semo-credits/internal/config"
	"github.com/wekeepgrowing/semo-credits/pkg/logger"
)

// Server exposes the standard gRPC health service for orchestrators
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: log,
		health: health.NewServer(),
	}
	s.server = grpc.NewServer(grpc.UnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)))
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(config.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Listen binds the configured address
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.GRPC.Host, s.config.Server.GRPC.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info("Starting gRPC server", zap.String("address", s.listener.Addr().String()))

	return s.server.Serve(s.listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
	return nil
}
