// Embedd is the embedding dispatch daemon.
//
// It loads the configured backends, starts a pool of dispatch workers and
// serves the HTTP API until SIGINT or SIGTERM.
//
// Usage:
//
//	# Start with ~/.config/embedd/config.yaml and environment overrides
//	embedd
//
//	# Explicit config file, remote TEI server elsewhere
//	GRPC_ENDPOINT=tei.internal:50051 embedd -config /etc/embedd/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/embedd/internal/backend"
	"github.com/fyrsmithlabs/embedd/internal/backend/local"
	"github.com/fyrsmithlabs/embedd/internal/config"
	"github.com/fyrsmithlabs/embedd/internal/dispatch"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	httpserver "github.com/fyrsmithlabs/embedd/internal/http"
	"github.com/fyrsmithlabs/embedd/internal/logging"
	"github.com/fyrsmithlabs/embedd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/embedd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  embedd [-config path]   Start the embedd daemon\n")
			fmt.Fprintf(os.Stderr, "  embedd version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("embedd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the daemon and blocks until ctx is cancelled:
//  1. Loads and validates configuration
//  2. Initializes telemetry, then the logger (which may export through it)
//  3. Locates the ONNX runtime for the local backend
//  4. Builds the backend registry and dispatcher
//  5. Serves HTTP until ctx ends, then shuts down in reverse order
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := initLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting embedd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("workers", cfg.Dispatch.Workers),
		zap.String("grpc_endpoint", cfg.GRPC.Endpoint),
		zap.Bool("telemetry", tel.IsEnabled()),
	)
	if h := tel.Health(); !h.Healthy {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("reasons", h.Reasons))
	}

	// The local backend loads lazily, so a missing runtime only fails
	// fastembed calls. grpc keeps working.
	if path, err := local.EnsureONNXRuntime(ctx, cfg.FastEmbed.ONNXVersion, logger); err != nil {
		logger.Warn(ctx, "onnx runtime unavailable, fastembed calls will fail", zap.Error(err))
	} else {
		logger.Info(ctx, "onnx runtime ready", zap.String("path", path))
	}

	metrics := embedder.NewMetrics(logger.Zap())
	registry, err := backend.NewRegistry(cfg, logger, metrics, backend.Options{})
	if err != nil {
		return fmt.Errorf("building backend registry: %w", err)
	}

	d := dispatch.New(registry, dispatch.Config{
		Workers:   cfg.Dispatch.Workers,
		QueueSize: cfg.Dispatch.QueueSize,
	}, logger, metrics)
	defer func() {
		_ = d.Close()
	}()

	srv, err := httpserver.NewServer(d, logger, &httpserver.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		HTTPMetrics: httpserver.NewHTTPMetrics(logger.Zap()),
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(shutdownCtx, "http shutdown", zap.Error(err))
		return err
	}
	logger.Info(shutdownCtx, "shutdown complete")
	return nil
}

// initLogger builds the logger. OTEL output needs a log provider from
// telemetry; without one logs go to stdout only.
func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	logCfg, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(logCfg, tel.LoggerProvider())
}
