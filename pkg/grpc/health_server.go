package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger func(ctx context.Context) error

// HealthServer exposes grpc.health.v1.Health for the shop. The overall
// status is SERVING only while every dependency answers its ping.
type HealthServer struct {
	srv      *grpc.Server
	health   *health.Server
	checks   map[string]Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthServer(service string, checks map[string]Pinger, interval time.Duration, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	h := &HealthServer{
		srv:      srv,
		health:   hs,
		checks:   checks,
		interval: interval,
		logger:   logger,
	}
	h.setStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthServer) setStatus(service string, status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	if service != "" {
		h.health.SetServingStatus(service, status)
	}
}

// Probe pings every dependency once and updates the serving status.
func (h *HealthServer) Probe(ctx context.Context, service string) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, ping := range h.checks {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := ping(pctx)
		cancel()
		if err != nil {
			h.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.setStatus(service, status)
	return status
}

// Watch probes on every interval until ctx is done.
func (h *HealthServer) Watch(ctx context.Context, service string) {
	h.Probe(ctx, service)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Probe(ctx, service)
		}
	}
}

func (h *HealthServer) Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error) {
	return h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
}

func (h *HealthServer) Serve(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	h.logger.Info("gRPC health server starting", zap.Int("port", port))
	// Stop before Serve is a normal shutdown, not a failure.
	if err := h.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
