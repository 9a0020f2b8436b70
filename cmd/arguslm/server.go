package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/arguslm/arguslm/api/handlers"
	"github.com/arguslm/arguslm/config"
	"github.com/arguslm/arguslm/internal/metrics"
	"github.com/arguslm/arguslm/internal/server"
	"github.com/arguslm/arguslm/internal/telemetry"
	"github.com/arguslm/arguslm/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is ArgusLM's main process: an HTTP API server, a metrics
// server, and the monitoring scheduler running in the background.
// Built around two independent internal/server.Manager instances plus
// a WaitGroup for coordinated shutdown, and additionally owns the
// Deps bundle and the monitoring.Scheduler lifecycle.
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	telemetry  *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	deps          *handlers.Deps
	gormStore     *store.GormStore
	healthHandler *handlers.HealthHandler

	metricsCollector *metrics.Collector

	wg sync.WaitGroup
}

// NewServer constructs a Server. Nothing is wired until Start; a
// database or dependency failure there makes Start return an error
// and the process does not serve.
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		telemetry:  otelProviders,
	}
}

// Start wires every collaborator, registers routes, and starts the
// HTTP and metrics listeners. Non-blocking — call WaitForShutdown to
// block until a termination signal arrives.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("arguslm", s.logger)

	deps, gormStore, err := wireDeps(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	s.deps = deps
	s.gormStore = gormStore

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewDatabaseHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := s.gormStore.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}))
	if deps.Cache != nil {
		s.healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("redis", func(ctx context.Context) error {
			return deps.Cache.Ping(ctx)
		}))
	}

	bootCtx := context.Background()
	if err := deps.Scheduler.Start(bootCtx); err != nil {
		s.logger.Warn("monitoring scheduler failed to start", zap.Error(err))
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

// startHTTPServer builds the route table — one http.ServeMux entry per
// REST surface operation of §6.3 — wraps it in the middleware chain,
// and starts it via internal/server.Manager.
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()
	d := s.deps

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	providerHandler := handlers.NewProviderHandler(d)
	mux.HandleFunc("POST /api/v1/providers", providerHandler.Create)
	mux.HandleFunc("GET /api/v1/providers", providerHandler.List)
	mux.HandleFunc("GET /api/v1/providers/catalog", providerHandler.Catalog)
	mux.HandleFunc("POST /api/v1/providers/test-connection", providerHandler.TestConnection)
	mux.HandleFunc("GET /api/v1/providers/{id}", providerHandler.Get)
	mux.HandleFunc("PATCH /api/v1/providers/{id}", providerHandler.Update)
	mux.HandleFunc("DELETE /api/v1/providers/{id}", providerHandler.Delete)
	mux.HandleFunc("POST /api/v1/providers/{id}/test", providerHandler.Test)
	mux.HandleFunc("POST /api/v1/providers/{id}/refresh-models", providerHandler.RefreshModels)

	modelHandler := handlers.NewModelHandler(d)
	mux.HandleFunc("POST /api/v1/models", modelHandler.Create)
	mux.HandleFunc("GET /api/v1/models", modelHandler.List)
	mux.HandleFunc("GET /api/v1/models/{id}", modelHandler.Get)
	mux.HandleFunc("PATCH /api/v1/models/{id}", modelHandler.Update)
	mux.HandleFunc("DELETE /api/v1/models/{id}", modelHandler.Delete)

	monitoringHandler := handlers.NewMonitoringHandler(d)
	mux.HandleFunc("GET /api/v1/monitoring/config", monitoringHandler.GetConfig)
	mux.HandleFunc("PATCH /api/v1/monitoring/config", monitoringHandler.UpdateConfig)
	mux.HandleFunc("POST /api/v1/monitoring/run", monitoringHandler.Run)
	mux.HandleFunc("GET /api/v1/monitoring/uptime", monitoringHandler.Uptime)
	mux.HandleFunc("GET /api/v1/monitoring/uptime/export", monitoringHandler.ExportUptime)
	mux.HandleFunc("GET /api/v1/monitoring/prompt-packs", monitoringHandler.PromptPacks)

	benchmarkHandler := handlers.NewBenchmarkHandler(d)
	mux.HandleFunc("POST /api/v1/benchmarks", benchmarkHandler.Create)
	mux.HandleFunc("GET /api/v1/benchmarks", benchmarkHandler.List)
	mux.HandleFunc("GET /api/v1/benchmarks/{id}", benchmarkHandler.Get)
	mux.HandleFunc("GET /api/v1/benchmarks/{id}/results", benchmarkHandler.Results)
	mux.HandleFunc("GET /api/v1/benchmarks/{id}/export", benchmarkHandler.Export)
	mux.HandleFunc("GET /api/v1/benchmarks/{id}/stream", benchmarkHandler.Stream)

	alertHandler := handlers.NewAlertHandler(d)
	mux.HandleFunc("POST /api/v1/alerts/rules", alertHandler.CreateRule)
	mux.HandleFunc("GET /api/v1/alerts/rules", alertHandler.ListRules)
	mux.HandleFunc("GET /api/v1/alerts/rules/{id}", alertHandler.GetRule)
	mux.HandleFunc("PATCH /api/v1/alerts/rules/{id}", alertHandler.UpdateRule)
	mux.HandleFunc("DELETE /api/v1/alerts/rules/{id}", alertHandler.DeleteRule)
	mux.HandleFunc("GET /api/v1/alerts", alertHandler.List)
	mux.HandleFunc("GET /api/v1/alerts/unread-count", alertHandler.UnreadCount)
	mux.HandleFunc("GET /api/v1/alerts/recent", alertHandler.Recent)
	mux.HandleFunc("PATCH /api/v1/alerts/{id}/acknowledge", alertHandler.Acknowledge)

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		CORS(s.cfg.CORS.AllowedOrigins),
		RateLimiter(context.Background(), 20, 40, s.logger),
		SessionAuth(s.cfg.Auth, skipAuthPaths, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     s.cfg.Server.IdleTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 30 * s.cfg.Server.ReadTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: 30 * s.cfg.Server.ReadTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a termination signal arrives, then
// runs Shutdown.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown gracefully stops every component in reverse start order.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	ctx := context.Background()

	if s.deps != nil && s.deps.Scheduler != nil {
		s.deps.Scheduler.Stop()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}
	if s.deps != nil && s.deps.Cache != nil {
		if err := s.deps.Cache.Close(); err != nil {
			s.logger.Error("cache shutdown error", zap.Error(err))
		}
	}

	s.wg.Wait()
	s.logger.Info("graceful shutdown completed")
}
