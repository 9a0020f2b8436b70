// =============================================================================
// ArgusLM Configuration Loader
// =============================================================================
// Unified configuration loading: YAML file + environment variable
// override, layered on top of package defaults.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("ARGUSLM").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables.
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Core configuration structures
// =============================================================================

// Config is ArgusLM's complete configuration tree.
type Config struct {
	// Server holds the HTTP/metrics server settings.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Database holds the persistence boundary's connection settings.
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis backs internal/cache's provider model-discovery cache.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Encryption holds the authenticated-encryption key protecting
	// ProviderAccount.Credentials at rest.
	Encryption EncryptionConfig `yaml:"encryption" env:"ENCRYPTION"`

	// Auth holds the session/CSRF signing secret for the operator
	// HTTP surface.
	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Monitoring seeds the first MonitoringConfig row on an empty
	// database; after that the live value lives in the store.
	Monitoring MonitoringConfig `yaml:"monitoring" env:"MONITORING"`

	// Throttle configures the hierarchical concurrency ceilings the
	// throttle.Manager enforces.
	Throttle ThrottleConfig `yaml:"throttle" env:"THROTTLE"`

	// CORS lists the origins allowed to call the operator HTTP
	// surface from a browser.
	CORS CORSConfig `yaml:"cors" env:"CORS"`

	// Log holds the logging configuration.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry holds the tracing/metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP and metrics listeners.
type ServerConfig struct {
	// Host is the listen address.
	Host string `yaml:"host" env:"HOST"`
	// HTTPPort is the operator HTTP API port.
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// MetricsPort serves the Prometheus /metrics endpoint.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// ReadTimeout is the HTTP server read timeout.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// WriteTimeout is the HTTP server write timeout.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// IdleTimeout is the HTTP server keep-alive idle timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// RedisConfig configures the cache.Cache connection.
type RedisConfig struct {
	// Addr is the Redis host:port.
	Addr string `yaml:"addr" env:"ADDR"`
	// Password is the Redis AUTH password (empty if unauthenticated).
	Password string `yaml:"password" env:"PASSWORD"`
	// DB is the logical Redis database index.
	DB int `yaml:"db" env:"DB"`
	// DialTimeout is loaded into Config but not passed to the cache
	// client; the initial connection check uses a fixed 5s timeout.
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
	// CacheTTL is how long a cached model-discovery result survives.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// DatabaseConfig configures the GORM persistence boundary.
type DatabaseConfig struct {
	// Driver selects the gorm dialect: postgres or sqlite.
	Driver string `yaml:"driver" env:"DRIVER"`
	// URL is the driver-specific DSN — a file path for sqlite, a
	// libpq-style connection string for postgres.
	URL string `yaml:"url" env:"URL"`
	// Echo is loaded into Config but not read when the database is
	// opened; it does not change GORM's logging.
	Echo bool `yaml:"echo" env:"ECHO"`
	// MaxOpenConns bounds the underlying sql.DB connection pool.
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// MaxIdleConns bounds idle connections kept alive in the pool.
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// ConnMaxLifetime recycles a connection after this long.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// EncryptionConfig holds the key protecting credentials at rest.
type EncryptionConfig struct {
	// Key is a base64-encoded 256-bit AES-GCM key. Mandatory:
	// Validate rejects a Config with this field empty or a known
	// placeholder; the base64 decoding and 32-byte length are checked
	// when cmd/arguslm wires its dependencies, not by Validate.
	Key string `yaml:"key" env:"KEY"`
}

// AuthConfig holds the operator-session signing secret.
type AuthConfig struct {
	// SecretKey signs and verifies session/CSRF tokens. Mandatory:
	// Validate rejects this field being empty or a known placeholder.
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	// SessionDuration is how long an issued session token is valid.
	SessionDuration time.Duration `yaml:"session_duration" env:"SESSION_DURATION"`
}

// MonitoringConfig seeds the store's MonitoringConfig singleton row.
type MonitoringConfig struct {
	// IntervalMinutes is the tick period the scheduler is seeded with.
	IntervalMinutes int `yaml:"interval_minutes" env:"INTERVAL_MINUTES"`
	// Enabled seeds whether the scheduler starts ticking at boot.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// PromptPackID names the prompt pack used for health checks.
	PromptPackID string `yaml:"prompt_pack_id" env:"PROMPT_PACK_ID"`
}

// ThrottleConfig seeds throttle.Profile.
type ThrottleConfig struct {
	// GlobalLimit bounds total in-flight provider calls.
	GlobalLimit int `yaml:"global_limit" env:"GLOBAL_LIMIT"`
	// ProviderLimit bounds in-flight calls per provider account.
	ProviderLimit int `yaml:"provider_limit" env:"PROVIDER_LIMIT"`
	// ModelLimit bounds in-flight calls per model.
	ModelLimit int `yaml:"model_limit" env:"MODEL_LIMIT"`
}

// CORSConfig lists browser origins allowed to call the HTTP surface.
type CORSConfig struct {
	// AllowedOrigins is the origin allow-list; empty disables
	// cross-origin access entirely.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// LogConfig configures the process-wide zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths lists zap sink targets ("stdout", a file path, ...).
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// EnableCaller adds the calling file:line to each log entry.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// EnableStacktrace attaches a stack trace to error-level entries.
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	// Enabled turns tracing spans on or off.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLPEndpoint is the collector address spans are exported to.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// ServiceName identifies this process in exported spans.
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// SampleRate is the fraction of traces sampled, 0 to 1.
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader builds a Config via the Builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a Loader with the default "ARGUSLM" env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "ARGUSLM",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path to layer over the defaults.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator registers an additional validation pass run after
// Validate.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load builds a Config: defaults, then the YAML file (if any), then
// environment variable overrides, then every registered validator.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile merges a YAML file into cfg. A missing file is not an
// error — the defaults (plus any env override) stand as-is.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv walks cfg's fields by the "env" struct tag, prefixed by
// l.envPrefix.
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively sets struct fields from environment
// variables named "<prefix>_<env tag>".
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue converts envValue to field's type and assigns it.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads the config at path, panicking on error. cmd/arguslm
// does not call it; its bootstrap uses Loader.Load directly.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads the config from defaults plus environment
// variables only, with no backing file.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// placeholderSecrets is the set of values Validate rejects outright
// even though they are non-empty — copy-pasted example secrets from
// documentation or .env.example files.
var placeholderSecrets = map[string]bool{
	"changeme":          true,
	"change-me":         true,
	"secret":            true,
	"your-secret-key":   true,
	"your-secret-here":  true,
}

// Validate enforces §6's mandatory-configuration rule: EncryptionKey
// and SecretKey must both be present and not a known placeholder, or
// startup must fail rather than run with a silently weak default.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}

	if strings.TrimSpace(c.Encryption.Key) == "" {
		errs = append(errs, "encryption.key is required")
	} else if placeholderSecrets[strings.ToLower(c.Encryption.Key)] {
		errs = append(errs, "encryption.key must not be a placeholder value")
	}

	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		errs = append(errs, "auth.secret_key is required")
	} else if placeholderSecrets[strings.ToLower(c.Auth.SecretKey)] {
		errs = append(errs, "auth.secret_key must not be a placeholder value")
	}

	if c.Monitoring.IntervalMinutes <= 0 {
		errs = append(errs, "monitoring.interval_minutes must be positive")
	}

	if c.Throttle.GlobalLimit <= 0 || c.Throttle.ProviderLimit <= 0 || c.Throttle.ModelLimit <= 0 {
		errs = append(errs, "throttle limits must all be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the connection string gorm.Open expects for d.Driver.
// Only postgres and sqlite are supported — no example repo in the
// pack wires a mysql driver, so that branch was dropped rather than
// carried as dead code.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return d.URL
	case "sqlite":
		return d.URL
	default:
		return ""
	}
}
