package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TFMV/planscribe/cmd/planscribe/config"
	"github.com/TFMV/planscribe/cmd/planscribe/middleware"
	"github.com/TFMV/planscribe/pkg/cache"
	"github.com/TFMV/planscribe/pkg/handlers"
	"github.com/TFMV/planscribe/pkg/infrastructure/metrics"
	"github.com/TFMV/planscribe/pkg/repositories"
	"github.com/TFMV/planscribe/pkg/repositories/duckdb"
	"github.com/TFMV/planscribe/pkg/services"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the planscribe HTTP server",
		Long: `Start the planscribe HTTP server with the specified configuration.

Example:
  planscribe serve --config ./planscribe.yaml
  planscribe serve --address 0.0.0.0:8080 --database shop.duckdb`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	cmd.Flags().String("address", "0.0.0.0:8080", "server listen address")
	cmd.Flags().Duration("shutdown-timeout", config.DefaultConfig().Server.ShutdownTimeout, "graceful shutdown timeout")
	cmd.Flags().Int64("max-body-bytes", config.DefaultConfig().Server.MaxBodyBytes, "maximum request body size in bytes")
	cmd.Flags().Bool("metrics", true, "enable Prometheus metrics")
	cmd.Flags().String("metrics-address", ":9090", "metrics server address (empty to serve on the main address)")
	cmd.Flags().Bool("cache", true, "cache narratives by document content")
	cmd.Flags().Int64("cache-size", config.DefaultConfig().Cache.MaxSize, "narrative cache size in bytes")
	cmd.Flags().Duration("cache-ttl", config.DefaultConfig().Cache.TTL, "narrative cache entry lifetime")
	cmd.Flags().String("database", "", "DuckDB database enabling POST /v1/explain")
	cmd.Flags().String("motherduck-token", "", "MotherDuck token for md: databases")
	cmd.Flags().StringArray("setup", nil, "statement to run on the database at startup (repeatable)")
	return cmd
}

// server holds everything serve starts and must stop.
type server struct {
	http          *http.Server
	metricsServer *metrics.MetricsServer
	cache         cache.Cache
	explainRepo   repositories.ExplainRepository
	logger        zerolog.Logger
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr())
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Msg("Starting planscribe server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrCh := make(chan error, 2)
	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := srv.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()
	if srv.metricsServer != nil {
		go func() {
			logger.Info().Str("address", cfg.Metrics.Address).Msg("Starting metrics server")
			if err := srv.metricsServer.Start(); err != nil {
				serverErrCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	// Wait for shutdown signal or server error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal")
	case runErr = <-serverErrCh:
		logger.Error().Err(runErr).Msg("Server failed")
	}

	logger.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("Starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	srv.close(shutdownCtx)

	logger.Info().Msg("Server shutdown complete")
	return runErr
}

// newServer wires the services, handlers and middleware described by cfg.
func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*server, error) {
	srv := &server{logger: logger}

	// Create metrics collector
	var collector metrics.Collector = metrics.NewNoOpCollector()
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewPrometheusCollector(registry)
	}
	serviceMetrics := &serviceMetricsAdapter{collector: collector}

	opts := services.NarrationOptions{Workers: cfg.Workers}
	if cfg.Cache.Enabled {
		srv.cache = cache.NewMemoryCache(cache.DefaultConfig().
			WithMaxSize(cfg.Cache.MaxSize).
			WithTTL(cfg.Cache.TTL))
		opts.Cache = srv.cache
	}
	narration := services.NewNarrationService(opts, newLoggerAdapter(logger, "narration_service"), serviceMetrics)

	var explain services.ExplainService
	if cfg.DuckDB.DSN != "" {
		repo, err := duckdb.Open(ctx, duckdb.ResolveDSN(cfg.DuckDB.DSN, cfg.DuckDB.Token), logger.With().Str("component", "duckdb").Logger())
		if err != nil {
			return nil, err
		}
		srv.explainRepo = repo
		explain = services.NewExplainService(repo, narration, newLoggerAdapter(logger, "explain_service"), serviceMetrics)
		if err := explain.Setup(ctx, cfg.DuckDB.Setup); err != nil {
			repo.Close()
			return nil, err
		}
	}

	handler := handlers.NewNarrativeHandler(
		narration,
		explain,
		cfg.Server.MaxBodyBytes,
		newLoggerAdapter(logger, "narrative_handler"),
		&handlerMetricsAdapter{collector: collector},
	)
	mux := handler.Routes()

	if registry != nil {
		if cfg.Metrics.Address == "" || cfg.Metrics.Address == cfg.Server.Address {
			mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler(registry))
		} else {
			srv.metricsServer = metrics.NewMetricsServer(cfg.Metrics.Address, cfg.Metrics.Path, registry)
		}
	}

	httpLogger := logger.With().Str("component", "http").Logger()
	srv.http = &http.Server{
		Addr: cfg.Server.Address,
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.NewRecoveryMiddleware(httpLogger).Handler,
			middleware.NewLoggingMiddleware(httpLogger).Handler,
			middleware.NewMetricsMiddleware(&middlewareMetricsAdapter{collector: collector}).Handler,
		),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return srv, nil
}

// close stops the servers, then releases the cache and database.
func (s *server) close(ctx context.Context) {
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during server shutdown")
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Stop(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}
	if s.cache != nil {
		stats := s.cache.Stats()
		s.logger.Info().
			Uint64("hits", stats.Hits).
			Uint64("misses", stats.Misses).
			Float64("hit_rate", stats.HitRate()).
			Msg("Narrative cache statistics")
		_ = s.cache.Close()
	}
	if s.explainRepo != nil {
		if err := s.explainRepo.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}
}
