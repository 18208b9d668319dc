// Package main runs the product catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/productsapi/internal/config"
	"github.com/abgdnv/productsapi/internal/product/app"
	"github.com/abgdnv/productsapi/pkg/bootstrap"
	"github.com/abgdnv/productsapi/pkg/messaging"
	natsclient "github.com/abgdnv/productsapi/pkg/nats"
	"github.com/abgdnv/productsapi/pkg/telemetry"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, wires the product service and runs its servers until ctx is done.
func run(ctx context.Context) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, config.ServiceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer shutdownWithTimeout(logger, "tracer provider", cfg.Shutdown.Context, tp.Shutdown)
	}

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		var err error
		metrics, err = telemetry.NewMeterProvider(config.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to create meter provider: %w", err)
		}
		defer shutdownWithTimeout(logger, "meter provider", cfg.Shutdown.Context, metrics.Shutdown)
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps, err := app.SetupDependencies(ctx, cfg, publisher, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}
	logger.Info("Product catalog seeded", "count", len(cfg.Seed))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	httpServer := app.SetupHttpServer(deps, cfg)
	serveHTTP(gCtx, g, logger, "HTTP", httpServer, cfg.Shutdown.Context)

	// Start the gRPC health server if enabled
	if cfg.GRPC.Enabled {
		grpcServer, healthReporter := app.SetupGrpcServer(deps, cfg.GRPC.ReflectionEnabled)
		healthReporter.Probe(ctx)
		g.Go(func() error {
			healthReporter.Watch(gCtx, cfg.GRPC.HealthInterval)
			return nil
		})
		g.Go(func() error {
			grpcAddr := ":" + cfg.GRPC.Port
			lis, err := net.Listen("tcp", grpcAddr)
			if err != nil {
				return fmt.Errorf("failed to listen on gRPC port: %w", err)
			}
			logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
			return grpcServer.Serve(lis)
		})
		// gracefully shutdown gRPC server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			healthReporter.Shutdown()
			return stopGRPC(logger, grpcServer, cfg.Shutdown.Timeout)
		})
	}

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		serveHTTP(gCtx, g, logger, "Pprof", app.SetupPprofServer(cfg), cfg.Shutdown.Context)
	}

	// Start the metrics server if enabled
	if metrics != nil {
		metricsServer := app.SetupMetricsServer(cfg, metrics.Handler)
		serveHTTP(gCtx, g, logger, "Metrics", metricsServer, cfg.Shutdown.Context)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newPublisher connects to NATS JetStream when enabled. Otherwise events are discarded.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS is disabled, product events will not be published")
		return messaging.NopPublisher{}, func() {}, nil
	}

	nc, err := natsclient.NewClient(cfg.Nats.Url, config.ServiceName+"-service", cfg.Nats.Timeout, logger)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Nats.Timeout)
	defer cancel()
	if err := natsclient.EnsureStream(streamCtx, js, cfg.Nats.Stream, []string{messaging.ProductSubjects}); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrlRedacted(), "stream", cfg.Nats.Stream)

	return natsclient.NewNatsPublisher(js), func() { drain(logger, nc) }, nil
}

func drain(logger *slog.Logger, nc *nats.Conn) {
	if err := nc.Drain(); err != nil {
		logger.Warn("Failed to drain NATS connection", "error", err)
	}
}

// shutdownContext returns the context bounding a graceful shutdown.
type shutdownContext func() (context.Context, context.CancelFunc)

// serveHTTP runs srv in g and shuts it down once ctx is done.
func serveHTTP(ctx context.Context, g *errgroup.Group, logger *slog.Logger, name string, srv *http.Server, newShutdownCtx shutdownContext) {
	g.Go(func() error {
		logger.Info(name+" server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down " + name + " server...")
		shutdownCtx, cancel := newShutdownCtx()
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func stopGRPC(logger *slog.Logger, grpcServer *grpc.Server, timeout time.Duration) error {
	logger.Info("Shutting down gRPC server...")
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		logger.Info("gRPC server stopped gracefully.")
		return nil
	case <-time.After(timeout):
		logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
		grpcServer.Stop()
		return fmt.Errorf("grpc server graceful stop timed out")
	}
}

func shutdownWithTimeout(logger *slog.Logger, name string, newShutdownCtx shutdownContext, shutdown func(context.Context) error) {
	ctx, cancel := newShutdownCtx()
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Failed to shut down "+name, "error", err)
	}
}
