package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UptimeFilter narrows GET /uptime's history query (§6.3).
type UptimeFilter struct {
	ModelID     *uuid.UUID
	Status      CheckStatus
	Since       *time.Time
	EnabledOnly bool
	Limit       int
	Offset      int
}

// Store is the persistence boundary every higher-level component
// (uptime scheduler, benchmark orchestrator, alert evaluator, API
// handlers) talks to, instead of holding a *gorm.DB directly —
// mirrors the teacher's pattern of wrapping *gorm.DB behind a narrow
// manager type (internal/database.PoolManager) rather than passing the
// raw handle around.
type Store interface {
	CreateProviderAccount(ctx context.Context, acct *ProviderAccount) error
	GetProviderAccount(ctx context.Context, id uuid.UUID) (*ProviderAccount, error)
	ListProviderAccounts(ctx context.Context) ([]ProviderAccount, error)
	UpdateProviderAccount(ctx context.Context, acct *ProviderAccount) error
	DeleteProviderAccount(ctx context.Context, id uuid.UUID) error

	CreateModel(ctx context.Context, m *Model) error
	GetModel(ctx context.Context, id uuid.UUID) (*Model, error)
	ListModels(ctx context.Context, providerAccountID *uuid.UUID) ([]Model, error)
	ListModelsForMonitoring(ctx context.Context) ([]Model, error)
	ListModelsForBenchmark(ctx context.Context) ([]Model, error)
	UpdateModel(ctx context.Context, m *Model) error
	DeleteModel(ctx context.Context, id uuid.UUID) error

	GetOrCreateMonitoringConfig(ctx context.Context) (*MonitoringConfig, error)
	UpdateMonitoringConfig(ctx context.Context, cfg *MonitoringConfig) error

	CreateUptimeCheck(ctx context.Context, c *UptimeCheck) error
	ListUptimeChecks(ctx context.Context, filter UptimeFilter) ([]UptimeCheck, error)
	LatestUptimeChecks(ctx context.Context) ([]UptimeCheck, error)

	CreateBenchmarkRun(ctx context.Context, r *BenchmarkRun) error
	GetBenchmarkRun(ctx context.Context, id uuid.UUID) (*BenchmarkRun, error)
	ListBenchmarkRuns(ctx context.Context, limit, offset int) ([]BenchmarkRun, error)
	UpdateBenchmarkRun(ctx context.Context, r *BenchmarkRun) error
	CreateBenchmarkResult(ctx context.Context, r *BenchmarkResult) error
	ListBenchmarkResults(ctx context.Context, runID uuid.UUID) ([]BenchmarkResult, error)

	CreateAlertRule(ctx context.Context, r *AlertRule) error
	GetAlertRule(ctx context.Context, id uuid.UUID) (*AlertRule, error)
	ListAlertRules(ctx context.Context, enabledOnly bool) ([]AlertRule, error)
	UpdateAlertRule(ctx context.Context, r *AlertRule) error
	DeleteAlertRule(ctx context.Context, id uuid.UUID) error

	CreateAlert(ctx context.Context, a *Alert) error
	HasActiveIncident(ctx context.Context, ruleID uuid.UUID, modelID *uuid.UUID) (bool, error)
	ListAlerts(ctx context.Context, acknowledgedOnly, unacknowledgedOnly bool, limit, offset int) ([]Alert, error)
	AcknowledgeAlert(ctx context.Context, id uuid.UUID) error
}
