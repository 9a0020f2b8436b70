package store

import (
	"context"
	"errors"

	"github.com/arguslm/arguslm/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormStore is the default Store implementation, grounded on the
// teacher's *gorm.DB-holding manager pattern
// (internal/database.PoolManager wraps *gorm.DB behind methods rather
// than exposing it; llm/health_monitor.go takes a *gorm.DB directly for
// its own queries). Every method maps a gorm.ErrRecordNotFound into
// apperr's CodeNotFound so callers never have to know which ORM is
// underneath.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore wraps db without migrating it, so tests can supply a
// pre-migrated handle. cmd/arguslm creates the schema with the SQL
// migrations of internal/migration (the migrate command), not with
// AutoMigrate.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

// DB exposes the underlying *gorm.DB for callers that need it outside
// the Store interface, such as cmd/arguslm's database health check.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates/updates every table this store owns — mirrors
// llm/db_init.go's InitDatabase, generalized to ArgusLM's entity set.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&ProviderAccount{},
		&Model{},
		&MonitoringConfig{},
		&UptimeCheck{},
		&BenchmarkRun{},
		&BenchmarkResult{},
		&AlertRule{},
		&Alert{},
	)
}

func wrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.CodeNotFound, op+": not found").WithCause(err)
	}
	return apperr.New(apperr.CodeStorage, op+": storage error").WithCause(err)
}

// --- ProviderAccount ---

func (s *GormStore) CreateProviderAccount(ctx context.Context, acct *ProviderAccount) error {
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(acct).Error, "create provider account")
}

func (s *GormStore) GetProviderAccount(ctx context.Context, id uuid.UUID) (*ProviderAccount, error) {
	var acct ProviderAccount
	err := s.db.WithContext(ctx).First(&acct, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err, "get provider account")
	}
	return &acct, nil
}

func (s *GormStore) ListProviderAccounts(ctx context.Context) ([]ProviderAccount, error) {
	var accts []ProviderAccount
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&accts).Error
	return accts, wrapErr(err, "list provider accounts")
}

func (s *GormStore) UpdateProviderAccount(ctx context.Context, acct *ProviderAccount) error {
	return wrapErr(s.db.WithContext(ctx).Save(acct).Error, "update provider account")
}

// DeleteProviderAccount enforces §3's "deleted only when no child model
// has benchmark history" lifetime rule at the store boundary: the
// caller (API handler) is expected to have already checked this via
// ListModels/ListBenchmarkResults, but the cascading FK delete here
// would otherwise silently destroy that history, so we refuse rather
// than cascade through BenchmarkResult.
func (s *GormStore) DeleteProviderAccount(ctx context.Context, id uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&BenchmarkResult{}).
		Joins("JOIN arguslm_models ON arguslm_models.id = arguslm_benchmark_results.model_id").
		Where("arguslm_models.provider_account_id = ?", id).
		Count(&count).Error
	if err != nil {
		return wrapErr(err, "check benchmark history before delete")
	}
	if count > 0 {
		return apperr.New(apperr.CodeConflict, "provider account has models with benchmark history")
	}
	return wrapErr(s.db.WithContext(ctx).Delete(&ProviderAccount{}, "id = ?", id).Error, "delete provider account")
}

// --- Model ---

func (s *GormStore) CreateModel(ctx context.Context, m *Model) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(m).Error, "create model")
}

func (s *GormStore) GetModel(ctx context.Context, id uuid.UUID) (*Model, error) {
	var m Model
	err := s.db.WithContext(ctx).Preload("ProviderAccount").First(&m, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err, "get model")
	}
	return &m, nil
}

func (s *GormStore) ListModels(ctx context.Context, providerAccountID *uuid.UUID) ([]Model, error) {
	q := s.db.WithContext(ctx).Preload("ProviderAccount")
	if providerAccountID != nil {
		q = q.Where("provider_account_id = ?", *providerAccountID)
	}
	var models []Model
	err := q.Order("created_at asc").Find(&models).Error
	return models, wrapErr(err, "list models")
}

func (s *GormStore) ListModelsForMonitoring(ctx context.Context) ([]Model, error) {
	var models []Model
	err := s.db.WithContext(ctx).
		Preload("ProviderAccount").
		Joins("JOIN arguslm_provider_accounts ON arguslm_provider_accounts.id = arguslm_models.provider_account_id").
		Where("arguslm_models.enabled_for_monitoring = ? AND arguslm_provider_accounts.enabled = ?", true, true).
		Find(&models).Error
	return models, wrapErr(err, "list models for monitoring")
}

func (s *GormStore) ListModelsForBenchmark(ctx context.Context) ([]Model, error) {
	var models []Model
	err := s.db.WithContext(ctx).
		Preload("ProviderAccount").
		Joins("JOIN arguslm_provider_accounts ON arguslm_provider_accounts.id = arguslm_models.provider_account_id").
		Where("arguslm_models.enabled_for_benchmark = ? AND arguslm_provider_accounts.enabled = ?", true, true).
		Find(&models).Error
	return models, wrapErr(err, "list models for benchmark")
}

func (s *GormStore) UpdateModel(ctx context.Context, m *Model) error {
	return wrapErr(s.db.WithContext(ctx).Save(m).Error, "update model")
}

func (s *GormStore) DeleteModel(ctx context.Context, id uuid.UUID) error {
	return wrapErr(s.db.WithContext(ctx).Delete(&Model{}, "id = ?", id).Error, "delete model")
}

// --- MonitoringConfig ---

// GetOrCreateMonitoringConfig implements §3's "created lazily with
// defaults on first read" rule for the singleton row.
func (s *GormStore) GetOrCreateMonitoringConfig(ctx context.Context) (*MonitoringConfig, error) {
	var cfg MonitoringConfig
	err := s.db.WithContext(ctx).First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapErr(err, "load monitoring config")
	}

	cfg = MonitoringConfig{
		ID:              uuid.New(),
		IntervalMinutes: 15,
		PromptPackID:    "health_check",
		Enabled:         true,
	}
	if err := s.db.WithContext(ctx).Create(&cfg).Error; err != nil {
		return nil, wrapErr(err, "create default monitoring config")
	}
	return &cfg, nil
}

func (s *GormStore) UpdateMonitoringConfig(ctx context.Context, cfg *MonitoringConfig) error {
	return wrapErr(s.db.WithContext(ctx).Save(cfg).Error, "update monitoring config")
}

// --- UptimeCheck ---

func (s *GormStore) CreateUptimeCheck(ctx context.Context, c *UptimeCheck) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(c).Error, "create uptime check")
}

func (s *GormStore) ListUptimeChecks(ctx context.Context, filter UptimeFilter) ([]UptimeCheck, error) {
	q := s.db.WithContext(ctx).Preload("Model").Preload("Model.ProviderAccount")
	if filter.ModelID != nil {
		q = q.Where("model_id = ?", *filter.ModelID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	if filter.EnabledOnly {
		q = q.Joins("JOIN arguslm_models ON arguslm_models.id = arguslm_uptime_checks.model_id").
			Where("arguslm_models.enabled_for_monitoring = ?", true)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	var checks []UptimeCheck
	err := q.Order("arguslm_uptime_checks.created_at desc").Limit(limit).Offset(filter.Offset).Find(&checks).Error
	return checks, wrapErr(err, "list uptime checks")
}

// LatestUptimeChecks returns the most recent check per model — used by
// the alert evaluator, which reasons over "current status", not full
// history.
// A join against a per-model MAX(created_at) subquery is used instead
// of Postgres's DISTINCT ON, since this store also wires a sqlite
// driver (§6.1) and DISTINCT ON has no sqlite equivalent.
func (s *GormStore) LatestUptimeChecks(ctx context.Context) ([]UptimeCheck, error) {
	var checks []UptimeCheck
	latest := s.db.Model(&UptimeCheck{}).
		Select("model_id, MAX(created_at) AS created_at").
		Group("model_id")
	err := s.db.WithContext(ctx).
		Joins("JOIN (?) AS latest ON latest.model_id = arguslm_uptime_checks.model_id AND latest.created_at = arguslm_uptime_checks.created_at", latest).
		Find(&checks).Error
	return checks, wrapErr(err, "list latest uptime checks")
}

// --- BenchmarkRun / BenchmarkResult ---

func (s *GormStore) CreateBenchmarkRun(ctx context.Context, r *BenchmarkRun) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(r).Error, "create benchmark run")
}

func (s *GormStore) GetBenchmarkRun(ctx context.Context, id uuid.UUID) (*BenchmarkRun, error) {
	var r BenchmarkRun
	err := s.db.WithContext(ctx).Preload("Results").First(&r, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err, "get benchmark run")
	}
	return &r, nil
}

func (s *GormStore) ListBenchmarkRuns(ctx context.Context, limit, offset int) ([]BenchmarkRun, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var runs []BenchmarkRun
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, wrapErr(err, "list benchmark runs")
}

func (s *GormStore) UpdateBenchmarkRun(ctx context.Context, r *BenchmarkRun) error {
	return wrapErr(s.db.WithContext(ctx).Save(r).Error, "update benchmark run")
}

func (s *GormStore) CreateBenchmarkResult(ctx context.Context, r *BenchmarkResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(r).Error, "create benchmark result")
}

func (s *GormStore) ListBenchmarkResults(ctx context.Context, runID uuid.UUID) ([]BenchmarkResult, error) {
	var results []BenchmarkResult
	err := s.db.WithContext(ctx).Preload("Model").Preload("Model.ProviderAccount").Where("run_id = ?", runID).Order("created_at asc").Find(&results).Error
	return results, wrapErr(err, "list benchmark results")
}

// --- AlertRule / Alert ---

func (s *GormStore) CreateAlertRule(ctx context.Context, r *AlertRule) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(r).Error, "create alert rule")
}

func (s *GormStore) GetAlertRule(ctx context.Context, id uuid.UUID) (*AlertRule, error) {
	var r AlertRule
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err, "get alert rule")
	}
	return &r, nil
}

func (s *GormStore) ListAlertRules(ctx context.Context, enabledOnly bool) ([]AlertRule, error) {
	q := s.db.WithContext(ctx)
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var rules []AlertRule
	err := q.Order("created_at asc").Find(&rules).Error
	return rules, wrapErr(err, "list alert rules")
}

func (s *GormStore) UpdateAlertRule(ctx context.Context, r *AlertRule) error {
	return wrapErr(s.db.WithContext(ctx).Save(r).Error, "update alert rule")
}

func (s *GormStore) DeleteAlertRule(ctx context.Context, id uuid.UUID) error {
	return wrapErr(s.db.WithContext(ctx).Delete(&AlertRule{}, "id = ?", id).Error, "delete alert rule")
}

func (s *GormStore) CreateAlert(ctx context.Context, a *Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return wrapErr(s.db.WithContext(ctx).Create(a).Error, "create alert")
}

// HasActiveIncident implements §4.6's NULL-aware dedup predicate: an
// unacknowledged alert for (ruleID, modelID), where a nil modelID must
// match a NULL column rather than be skipped.
func (s *GormStore) HasActiveIncident(ctx context.Context, ruleID uuid.UUID, modelID *uuid.UUID) (bool, error) {
	q := s.db.WithContext(ctx).Model(&Alert{}).
		Where("rule_id = ? AND acknowledged = ?", ruleID, false)
	if modelID != nil {
		q = q.Where("model_id = ?", *modelID)
	} else {
		q = q.Where("model_id IS NULL")
	}
	var count int64
	if err := q.Limit(1).Count(&count).Error; err != nil {
		return false, wrapErr(err, "check active incident")
	}
	return count > 0, nil
}

func (s *GormStore) ListAlerts(ctx context.Context, acknowledgedOnly, unacknowledgedOnly bool, limit, offset int) ([]Alert, error) {
	q := s.db.WithContext(ctx)
	if acknowledgedOnly {
		q = q.Where("acknowledged = ?", true)
	}
	if unacknowledgedOnly {
		q = q.Where("acknowledged = ?", false)
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var alerts []Alert
	err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&alerts).Error
	return alerts, wrapErr(err, "list alerts")
}

// AcknowledgeAlert is the only way Acknowledged ever flips — §3's
// "monotonically transitions false→true" invariant, enforced by never
// exposing a generic Update path for this field.
func (s *GormStore) AcknowledgeAlert(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&Alert{}).Where("id = ? AND acknowledged = ?", id, false).
		Update("acknowledged", true)
	if res.Error != nil {
		return wrapErr(res.Error, "acknowledge alert")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "alert not found or already acknowledged")
	}
	return nil
}
