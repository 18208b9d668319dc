// Package app contains the application setup for the ProductService.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"

	"github.com/abgdnv/productsapi/internal/config"
	"github.com/abgdnv/productsapi/internal/product/service"
	"github.com/abgdnv/productsapi/internal/product/store"
	grpcImpl "github.com/abgdnv/productsapi/internal/product/transport/grpc"
	"github.com/abgdnv/productsapi/internal/product/transport/rest"
	"github.com/abgdnv/productsapi/pkg/messaging"
	"github.com/abgdnv/productsapi/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

type Dependencies struct {
	ProductService service.ProductService
	Logger         *slog.Logger
}

// SetupDependencies seeds the in-memory catalog with cfg.Seed and builds the product service on top of it.
func SetupDependencies(ctx context.Context, cfg *config.Config, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	productStore, err := store.NewSeededStore(ctx, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed product store: %w", err)
	}
	pService := service.NewService(productStore, publisher, logger)

	return &Dependencies{
		ProductService: pService,
		Logger:         logger,
	}, nil
}

// SetupHttpHandler initializes the routes and middleware for the ProductService application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, config.ServiceName)
}

// wireRoutes sets up the HTTP routes for the ProductService application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the ProductService application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server that reports the product catalog health.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) (*grpc.Server, *grpcImpl.Health) {
	healthReporter := grpcImpl.NewHealth(deps.ProductService, deps.Logger)
	// create a new gRPC server with reflection if enabled
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, healthReporter.Register), healthReporter
}

// SetupMetricsServer serves the metrics handler on its own address.
func SetupMetricsServer(cfg *config.Config, metricsHandler http.Handler) *http.Server {
	mux := chi.NewRouter()
	mux.Handle(cfg.Metrics.Path, metricsHandler)
	return server.NewAuxServer(cfg.Metrics.Addr, cfg.HTTPServer.Timeout.ReadHeader, mux)
}

// SetupPprofServer serves the net/http/pprof handlers registered on http.DefaultServeMux.
func SetupPprofServer(cfg *config.Config) *http.Server {
	return server.NewAuxServer(cfg.PProf.Addr, cfg.HTTPServer.Timeout.ReadHeader, nil)
}
