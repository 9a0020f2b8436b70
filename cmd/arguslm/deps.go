// Package main is ArgusLM's single binary: serve, migrate, version, health.
package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/arguslm/arguslm/api/handlers"
	"github.com/arguslm/arguslm/bus"
	"github.com/arguslm/arguslm/config"
	"github.com/arguslm/arguslm/internal/cache"
	"github.com/arguslm/arguslm/monitoring"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/provider/anthropic"
	"github.com/arguslm/arguslm/provider/bedrock"
	"github.com/arguslm/arguslm/provider/gemini"
	"github.com/arguslm/arguslm/provider/openaicompat"
	"github.com/arguslm/arguslm/store"
	"github.com/arguslm/arguslm/throttle"
	"github.com/arguslm/arguslm/uptime"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// wireDeps builds every process-wide collaborator and the handlers.Deps
// bundle the HTTP surface shares, in dependency order: database,
// encryption key, provider registry, throttle manager, cache, bus,
// monitoring scheduler.
func wireDeps(cfg *config.Config, logger *zap.Logger) (*handlers.Deps, *store.GormStore, error) {
	db, err := openDatabase(cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	encryptionKey, err := base64.StdEncoding.DecodeString(cfg.Encryption.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("decode encryption.key as base64: %w", err)
	}
	if len(encryptionKey) != 32 {
		return nil, nil, fmt.Errorf("encryption.key must decode to 32 bytes (AES-256), got %d", len(encryptionKey))
	}

	gormStore := store.NewGormStore(db, logger)
	registry := buildRegistry(logger)
	throttleMgr := throttle.NewManager(throttle.Profile{
		GlobalLimit:   cfg.Throttle.GlobalLimit,
		ProviderLimit: cfg.Throttle.ProviderLimit,
		ModelLimit:    cfg.Throttle.ModelLimit,
	})

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = cfg.Redis.Addr
	cacheCfg.Password = cfg.Redis.Password
	cacheCfg.DB = cfg.Redis.DB
	cacheCfg.DefaultTTL = cfg.Redis.CacheTTL

	var cacheMgr *cache.Manager
	cacheMgr, err = cache.NewManager(cacheCfg, logger)
	if err != nil {
		logger.Warn("redis cache unavailable, discovery results will not be cached", zap.Error(err))
		cacheMgr = nil
	}

	messageBus := bus.New()

	if err := loadProviderQPSLimits(context.Background(), gormStore, throttleMgr); err != nil {
		logger.Warn("failed to load provider QPS limits, continuing unthrottled by QPS", zap.Error(err))
	}

	checker := buildChecker(registry, throttleMgr, encryptionKey, cfg.Monitoring.PromptPackID, logger)
	scheduler := monitoring.New(gormStore, checker, logger)

	deps := &handlers.Deps{
		Store:         gormStore,
		Registry:      registry,
		Scheduler:     scheduler,
		Bus:           messageBus,
		Throttle:      throttleMgr,
		Cache:         cacheMgr,
		EncryptionKey: encryptionKey,
		Logger:        logger,
	}

	return deps, gormStore, nil
}

// openDatabase opens the GORM persistence boundary. Unlike the
// teacher's postgres-only openDatabase, ArgusLM also wires sqlite
// (§6.1's default database_url) since migrations and the store are
// both dialect-portable.
func openDatabase(dbCfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	if dbCfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}

	var dialector gorm.Dialector
	switch dbCfg.Driver {
	case "postgres":
		dialector = postgres.Open(dbCfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(dbCfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", dbCfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	}

	logger.Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

// loadProviderQPSLimits seeds the throttle manager's per-provider
// token buckets from every existing account's configured QPSLimit, so
// a restart doesn't silently drop a previously configured rate ceiling
// until the next Create/Update call touches that account.
func loadProviderQPSLimits(ctx context.Context, st store.Store, throttleMgr *throttle.Manager) error {
	accounts, err := st.ListProviderAccounts(ctx)
	if err != nil {
		return err
	}
	for _, acct := range accounts {
		if acct.QPSLimit <= 0 {
			continue
		}
		throttleMgr.SetProviderQPS(string(acct.Kind), acct.QPSLimit, int(acct.QPSLimit)+1)
		throttleMgr.SetProviderQPS(acct.ID.String(), acct.QPSLimit, int(acct.QPSLimit)+1)
	}
	return nil
}

// buildRegistry constructs the provider.Registry from one shared
// openaicompat.Client (covering every OpenAI-wire-protocol kind) plus
// one dedicated client per non-compatible wire protocol (§4.1).
func buildRegistry(logger *zap.Logger) *provider.Registry {
	byKind := make(map[provider.Kind]provider.Invoker)

	compatClient := openaicompat.New(logger)
	compatInvoker := openaicompat.NewInvoker(compatClient)
	for _, kind := range provider.OpenAICompatibleKinds {
		byKind[kind] = compatInvoker
	}

	byKind[provider.KindAnthropic] = anthropic.New()
	byKind[provider.KindBedrock] = bedrock.New()
	// One gemini client serves both AI Studio and Vertex targets.
	geminiClient := gemini.New()
	byKind[provider.KindGemini] = geminiClient
	byKind[provider.KindVertex] = geminiClient

	return provider.NewRegistry(byKind)
}

// buildChecker closes uptime.Check over the registry, throttle manager,
// and encryption key so monitoring.Scheduler can run it against a bare
// store.Model row (§4.8's Checker contract).
func buildChecker(registry *provider.Registry, throttleMgr *throttle.Manager, encryptionKey []byte, promptPackID string, logger *zap.Logger) monitoring.Checker {
	return func(ctx context.Context, m store.Model) store.UptimeCheck {
		result := runCheck(ctx, registry, throttleMgr, encryptionKey, m, promptPackID, logger)

		check := store.UptimeCheck{
			ModelID:      m.ID,
			OutputTokens: result.OutputTokens,
			CreatedAt:    result.CheckedAt,
		}
		if result.Healthy {
			check.Status = store.StatusUp
		} else {
			check.Status = store.StatusDown
			check.Error = result.ErrorMessage
		}
		if result.TotalLatency > 0 {
			ms := float64(result.TotalLatency.Milliseconds())
			check.LatencyMS = &ms
		}
		if result.TTFT > 0 {
			ms := float64(result.TTFT.Milliseconds())
			check.TTFTMS = &ms
		}
		if result.TPS > 0 {
			tps := result.TPS
			check.TPS = &tps
		}
		return check
	}
}

// runCheck resolves m's credentials and invoker, then runs one uptime
// probe. A missing provider account or unresolved invoker is folded
// into an unhealthy Result rather than propagated — the scheduler's
// Checker contract never errors.
func runCheck(ctx context.Context, registry *provider.Registry, throttleMgr *throttle.Manager, encryptionKey []byte, m store.Model, promptPackID string, logger *zap.Logger) uptime.Result {
	if m.ProviderAccount == nil {
		return uptime.Result{Healthy: false, ErrorMessage: "model has no associated provider account"}
	}

	creds, err := store.DecryptCredentials(encryptionKey, m.ProviderAccount.Credentials)
	if err != nil {
		logger.Warn("failed to decrypt provider credentials", zap.String("provider_account_id", m.ProviderAccountID.String()), zap.Error(err))
		return uptime.Result{Healthy: false, ErrorMessage: "failed to decrypt credentials"}
	}

	kind := provider.Kind(m.ProviderAccount.Kind)
	invoker, ok := registry.Resolve(kind)
	if !ok {
		return uptime.Result{Healthy: false, ErrorMessage: fmt.Sprintf("no invoker registered for provider kind %q", kind)}
	}

	target := uptime.Target{
		Provider: provider.Target{Kind: kind, ModelID: m.ModelID, Credentials: creds},
		ModelID:  m.ModelID,
	}
	return uptime.Check(ctx, target, promptPackID, invoker, throttleMgr)
}
