package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker func(ctx context.Context) error

// HealthServer exposes grpc.health.v1 for the service and keeps its status
// in step with the run store.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	check  HealthChecker
	logger *slog.Logger
}

func NewHealthServer(check HealthChecker, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return &HealthServer{grpc: s, health: hs, check: check, logger: logger}
}

// Serve blocks until the listener fails or Stop is called.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("grpc health server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Watch re-runs the checker every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	if s.check == nil {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		s.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *HealthServer) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.check(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
