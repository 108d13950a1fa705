package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/api"
	"github.com/irfndi/oilpulse/internal/cache"
	"github.com/irfndi/oilpulse/internal/config"
	"github.com/irfndi/oilpulse/internal/database"
	"github.com/irfndi/oilpulse/internal/datasource"
	"github.com/irfndi/oilpulse/internal/logging"
	"github.com/irfndi/oilpulse/internal/middleware"
	"github.com/irfndi/oilpulse/internal/services"
	"github.com/irfndi/oilpulse/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	stdLogger := logging.NewStandardLogger(logger)
	ctx := context.Background()

	tp, err := telemetry.InitTelemetryWithProvider(ctx, telemetryConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownWithTimeout(logger, "tracing", tp.Shutdown)

	shutdownLogs, err := setupOTLPLogging(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("OTLP log export disabled")
	} else {
		defer shutdownWithTimeout(logger, "log export", shutdownLogs)
	}

	source, closeSource, err := newDataSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource.Close()

	impactConfig := services.ImpactConfig{
		WindowDays:        cfg.Analysis.ImpactWindowDays,
		MinObservations:   cfg.Analysis.MinWindowObservations,
		IncludeWindowRows: cfg.Analysis.IncludeWindowRows,
	}
	dataset, err := services.LoadDataset(ctx, source, impactConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	holder := services.NewDatasetHolder(dataset, source, impactConfig, logger)

	deps := api.Dependencies{
		Datasets: holder,
		Version:  version,
		Logger:   logger,
	}
	if db, ok := closeSource.(*database.PostgresDB); ok {
		deps.DB = db
	}
	if cfg.Redis.Enabled {
		redis, err := database.NewRedisConnection(cfg.Redis, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, serving without analysis cache")
		} else {
			defer redis.Close()
			deps.Redis = redis
			deps.Cache = cache.NewAnalysisCache(redis.Client, cfg.Redis.TTL, logger)
		}
	}

	router := newRouter(cfg, deps, stdLogger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		stdLogger.LogStartup(cfg.Telemetry.ServiceName, version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	reloadCtx, stopReload := context.WithCancel(ctx)
	defer stopReload()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go watchReload(reloadCtx, hup, holder, deps.Cache, logger)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	stdLogger.LogShutdown(cfg.Telemetry.ServiceName, sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

// closer is returned by newDataSource; *database.PostgresDB satisfies it.
type closer interface {
	Close()
}

type noopCloser struct{}

func (noopCloser) Close() {}

// newDataSource builds the configured upstream data source. Fetches are
// retried per cfg.Data.FetchRetries.
func newDataSource(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.DataSource, closer, error) {
	policy := services.DefaultRetryPolicy()
	policy.MaxRetries = cfg.Data.FetchRetries
	if cfg.Data.FetchRetryDelay > 0 {
		policy.InitialDelay = cfg.Data.FetchRetryDelay
	}

	switch cfg.Data.Source {
	case config.SourcePostgres:
		db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := database.NewPriceRepository(database.NewTracedPool(db.Pool))
		return services.WithRetry(repo, policy, logger), db, nil
	case config.SourceFile:
		return services.WithRetry(datasource.NewFileSource(cfg.Data, logger), policy, logger), noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// newRouter builds the gin engine with the shared middleware chain.
func newRouter(cfg *config.Config, deps api.Dependencies, stdLogger *logging.StandardLogger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.Telemetry.Enabled {
		router.Use(middleware.TelemetryMiddleware(cfg.Telemetry.ServiceName))
	}
	router.Use(middleware.RequestLogger(stdLogger))

	api.SetupRoutes(router, deps)
	return router
}

func telemetryConfig(cfg *config.Config) *telemetry.TelemetryConfig {
	tc := telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Exporter = cfg.Telemetry.Exporter
	tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tc.ServiceName = cfg.Telemetry.ServiceName
	tc.ServiceVersion = cfg.Telemetry.ServiceVersion
	tc.Environment = cfg.Environment
	tc.SampleRate = cfg.Telemetry.SampleRatio
	return tc
}

// setupOTLPLogging forwards log entries to the OTLP collector when both
// telemetry and log export are enabled.
func setupOTLPLogging(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (func(context.Context) error, error) {
	if !cfg.Telemetry.Enabled || !cfg.Telemetry.LogsEnabled {
		return func(context.Context) error { return nil }, nil
	}

	hostport, urlPath, insecure, _, err := telemetry.NormalizeOTLPEndpoint(cfg.Telemetry.OTLPEndpoint, "logs")
	if err != nil {
		return nil, fmt.Errorf("invalid OTLPEndpoint: %w", err)
	}
	provider, err := logging.NewOTLPLoggerProvider(ctx, logging.OTLPConfig{
		Endpoint:       hostport,
		URLPath:        urlPath,
		Insecure:       insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
	})
	if err != nil {
		return nil, err
	}
	logger.AddHook(logging.NewOTLPHook(provider.Logger(cfg.Telemetry.ServiceName), logger.GetLevel()))
	return provider.Shutdown, nil
}

// watchReload reloads the dataset on every signal until ctx is done. The
// analysis cache is cleared after a successful reload.
func watchReload(ctx context.Context, signals <-chan os.Signal, holder *services.DatasetHolder, analysisCache *cache.AnalysisCache, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			err := telemetry.TraceAnalysis(ctx, telemetry.SpanDatasetReload, holder.Reload)
			if err != nil {
				continue
			}
			if analysisCache != nil {
				if err := analysisCache.Clear(ctx); err != nil {
					logger.WithError(err).Warn("Failed to clear analysis cache after reload")
				}
			}
			logger.WithField("version", holder.Current().Version).Info("Dataset reloaded")
		}
	}
}

func shutdownWithTimeout(logger *logrus.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.WithError(err).WithField("component", name).Warn("Shutdown failed")
	}
}
