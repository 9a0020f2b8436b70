// Package store defines ArgusLM's persisted entities (§3) as GORM
// models, plus the Store interface the rest of the system talks to.
// Grounded on the teacher's own gorm.io/gorm usage throughout llm/
// (db_init.go's AutoMigrate list, types.go's struct-tag and TableName
// conventions) and internal/database/pool.go's *gorm.DB wiring, scaled
// from the teacher's uint-keyed sc_llm_* tables to uuid.UUID primary
// keys per §3's "opaque 128-bit universally-unique id" requirement.
package store

import (
	"time"

	"github.com/google/uuid"
)

// ProviderKind mirrors provider.Kind as a persisted string column —
// kept as its own type rather than importing package provider here, so
// store stays a leaf package the provider sub-clients never need to
// import back.
type ProviderKind string

// ModelSource distinguishes a Model row discovered via a provider's
// list-models endpoint from one an operator typed in by hand.
type ModelSource string

const (
	SourceDiscovered ModelSource = "discovered"
	SourceManual     ModelSource = "manual"
)

// CheckStatus is UptimeCheck's closed status vocabulary. Degraded is
// defined but never produced by this baseline (§4.4, §9) — reserved
// for a future latency-threshold predicate.
type CheckStatus string

const (
	StatusUp       CheckStatus = "up"
	StatusDown     CheckStatus = "down"
	StatusDegraded CheckStatus = "degraded"
)

// RunStatus is BenchmarkRun's state machine (§4.5).
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// TriggeredBy distinguishes an operator-initiated benchmark from a
// scheduled one.
type TriggeredBy string

const (
	TriggeredByUser      TriggeredBy = "user"
	TriggeredByScheduled TriggeredBy = "scheduled"
)

// AlertRuleKind is AlertRule's closed rule-kind vocabulary (§3, §4.6).
// performance_degradation is defined but, like CheckStatus's degraded
// value, has no evaluator branch in this baseline — its threshold
// field is reserved for that future rule.
type AlertRuleKind string

const (
	RuleAnyModelDown               AlertRuleKind = "any_model_down"
	RuleSpecificModelDown          AlertRuleKind = "specific_model_down"
	RuleModelUnavailableEverywhere AlertRuleKind = "model_unavailable_everywhere"
	RulePerformanceDegradation     AlertRuleKind = "performance_degradation"
)

// ProviderAccount is the identity of one external inference endpoint
// (§3). Credentials are stored as an EncryptedBlob, never a plaintext
// column or JSON map. The API handlers seal credentials with
// EncryptCredentials before calling the store, which persists the blob
// as given.
type ProviderAccount struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        ProviderKind `gorm:"size:50;not null;index" json:"kind"`
	DisplayName string       `gorm:"size:200;not null" json:"display_name"`
	Credentials EncryptedBlob `gorm:"type:bytea;not null" json:"-"`
	Enabled     bool         `gorm:"default:true;not null" json:"enabled"`
	// QPSLimit, when > 0, is an additional token-bucket rate ceiling
	// (requests per second) layered in front of the throttle manager's
	// concurrency slots — for providers whose quota is QPS-shaped. Zero
	// means no additional rate limit beyond the concurrency ceilings.
	QPSLimit    float64      `gorm:"default:0;not null" json:"qps_limit"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Models []Model `gorm:"foreignKey:ProviderAccountID;constraint:OnDelete:CASCADE" json:"models,omitempty"`
}

func (ProviderAccount) TableName() string { return "arguslm_provider_accounts" }

// Model is one callable model within a ProviderAccount (§3).
type Model struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderAccountID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"provider_account_id"`
	ModelID             string            `gorm:"size:200;not null" json:"model_id"`
	DisplayName         string            `gorm:"size:200" json:"display_name"`
	Source              ModelSource       `gorm:"size:20;not null;default:discovered" json:"source"`
	EnabledForMonitoring bool             `gorm:"default:true;not null" json:"enabled_for_monitoring"`
	EnabledForBenchmark bool              `gorm:"default:true;not null" json:"enabled_for_benchmark"`
	Metadata            JSONMap           `gorm:"type:jsonb" json:"metadata"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	ProviderAccount *ProviderAccount `gorm:"foreignKey:ProviderAccountID" json:"provider_account,omitempty"`
}

func (Model) TableName() string { return "arguslm_models" }

// MonitoringConfig is the process-wide singleton config row (§3) —
// lazily created with defaults on first read
// (GormStore.GetOrCreateMonitoringConfig).
type MonitoringConfig struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IntervalMinutes  int       `gorm:"not null;default:15" json:"interval_minutes"`
	PromptPackID     string    `gorm:"size:50;not null;default:health_check" json:"prompt_pack_id"`
	Enabled          bool      `gorm:"default:true;not null" json:"enabled"`
	LastRunAt        *time.Time `json:"last_run_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (MonitoringConfig) TableName() string { return "arguslm_monitoring_config" }

// UptimeCheck is the outcome of one health probe (§3).
type UptimeCheck struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ModelID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"model_id"`
	Status        CheckStatus `gorm:"size:20;not null;index" json:"status"`
	LatencyMS     *float64    `json:"latency_ms"`
	TTFTMS        *float64    `json:"ttft_ms"`
	TPS           *float64    `json:"tps"`
	OutputTokens  int         `gorm:"default:0" json:"output_tokens"`
	Error         string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`

	Model *Model `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE" json:"model,omitempty"`
}

func (UptimeCheck) TableName() string { return "arguslm_uptime_checks" }

// BenchmarkRun is one benchmark job (§3, §4.5).
type BenchmarkRun struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string      `gorm:"size:200;not null" json:"name"`
	ModelIDs      UUIDList    `gorm:"type:jsonb;not null" json:"model_ids"`
	PromptPackID  string      `gorm:"size:50;not null" json:"prompt_pack_id"`
	Status        RunStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	TriggeredBy   TriggeredBy `gorm:"size:20;not null" json:"triggered_by"`
	StartedAt     *time.Time  `json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	Results []BenchmarkResult `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

func (BenchmarkRun) TableName() string { return "arguslm_benchmark_runs" }

// BenchmarkResult is one measurement within a BenchmarkRun (§3).
// Invariant: Error non-empty iff the measurement failed, in which case
// every numeric field stays at its zero value.
type BenchmarkResult struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RunID            uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	ModelID          uuid.UUID `gorm:"type:uuid;not null;index" json:"model_id"`
	TTFTMS           float64   `json:"ttft_ms"`
	TPS              float64   `json:"tps"`
	TPSExcludingTTFT float64   `json:"tps_excluding_ttft"`
	TotalLatencyMS   float64   `json:"total_latency_ms"`
	InputTokens      int       `json:"input_tokens"`
	OutputTokens     int       `json:"output_tokens"`
	EstimatedCostUSD *float64  `json:"estimated_cost_usd"`
	Error            string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	Model *Model `gorm:"foreignKey:ModelID" json:"model,omitempty"`
}

func (BenchmarkResult) TableName() string { return "arguslm_benchmark_results" }

// AlertRule is a declarative detector (§3, §4.6).
type AlertRule struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string        `gorm:"size:200;not null" json:"name"`
	RuleType        AlertRuleKind `gorm:"size:50;not null" json:"rule_type"`
	Enabled         bool          `gorm:"default:true;not null" json:"enabled"`
	TargetModelID   *uuid.UUID    `gorm:"type:uuid" json:"target_model_id"`
	TargetModelName string        `gorm:"size:200" json:"target_model_name,omitempty"`
	Threshold       JSONMap       `gorm:"type:jsonb" json:"threshold,omitempty"`
	NotifyEmail     bool          `gorm:"default:false" json:"notify_email"`
	NotifyWebhook   bool          `gorm:"default:false" json:"notify_webhook"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Alerts []Alert `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
}

func (AlertRule) TableName() string { return "arguslm_alert_rules" }

// Alert is one incident occurrence (§3). ModelID is nullable: a
// cross-model rule (model_unavailable_everywhere) leaves it nil, and
// the column has no foreign-key cascade — Alert holds only a weak
// reference to Model, surviving Model deletion per §3's ownership
// note.
type Alert struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RuleID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"rule_id"`
	ModelID      *uuid.UUID `gorm:"type:uuid;index" json:"model_id"`
	Message      string     `gorm:"type:text;not null" json:"message"`
	Acknowledged bool       `gorm:"default:false;not null;index" json:"acknowledged"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`

	Rule *AlertRule `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Alert) TableName() string { return "arguslm_alerts" }
