// Package grpc exposes the product service over the standard gRPC health protocol.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/productsapi/internal/product/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health check key reported for the product catalog.
const ServiceName = "product.ProductService"

// ProductLister is the part of the product service the probe needs.
type ProductLister interface {
	FindAll(ctx context.Context) ([]service.ProductDto, error)
}

// Health reports the serving status of the product catalog.
type Health struct {
	server  *health.Server
	service ProductLister
	logger  *slog.Logger
}

func NewHealth(service ProductLister, logger *slog.Logger) *Health {
	return &Health{
		server:  health.NewServer(),
		service: service,
		logger:  logger.With("component", "grpc-health"),
	}
}

// Register adds the health service to s.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Probe lists the catalog once and updates the status of ServiceName and of the server as a whole.
func (h *Health) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if _, err := h.service.FindAll(ctx); err != nil {
		h.logger.WarnContext(ctx, "Product catalog probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus(ServiceName, status)
	h.server.SetServingStatus("", status)
	return status
}

// Watch probes immediately and then every interval until ctx is done.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if status := h.Probe(ctx); status != last {
				h.logger.InfoContext(ctx, "Product catalog health changed", "status", status.String())
				last = status
			}
		}
	}
}

// Shutdown marks every service as not serving.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}
