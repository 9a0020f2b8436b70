// =============================================================================
// ArgusLM Configuration Defaults
// =============================================================================
package config

import "time"

// DefaultConfig returns a Config populated with every section's
// defaults. Loader starts from this value before layering the YAML
// file and environment overrides on top (§6's "mandatory /
// optional" split is enforced later by Validate, not here — a default
// Config is intentionally invalid for EncryptionKey/SecretKey so a
// deployment can never silently boot on a placeholder secret).
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Database:   DefaultDatabaseConfig(),
		Redis:      DefaultRedisConfig(),
		Encryption: DefaultEncryptionConfig(),
		Auth:       DefaultAuthConfig(),
		Monitoring: DefaultMonitoringConfig(),
		Throttle:   DefaultThrottleConfig(),
		CORS:       DefaultCORSConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP/metrics server
// settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		HTTPPort:     8080,
		MetricsPort:  9090,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// DefaultDatabaseConfig returns the default documented in spec's
// external interfaces section: a local sqlite file, re-expressed for
// gorm.io/driver/sqlite in place of the original's aiosqlite DSN.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver: "sqlite",
		URL:    "./arguslm.db",
		Echo:   false,
	}
}

// DefaultRedisConfig returns the defaults for internal/cache's
// provider model-discovery cache.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		Password:    "",
		DB:          0,
		DialTimeout: 5 * time.Second,
		CacheTTL:    10 * time.Minute,
	}
}

// DefaultEncryptionConfig leaves Key empty on purpose: startup
// requires it be supplied (file or env) and rejects an absent or
// malformed key rather than generating or defaulting one.
func DefaultEncryptionConfig() EncryptionConfig {
	return EncryptionConfig{Key: ""}
}

// DefaultAuthConfig leaves SecretKey empty for the same reason as
// DefaultEncryptionConfig — a placeholder value would be a silent
// security regression, not a convenience.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SecretKey:       "",
		SessionDuration: 24 * time.Hour,
	}
}

// DefaultMonitoringConfig mirrors MonitoringConfig's own row defaults
// — used only to seed the first GetOrCreateMonitoringConfig row; the
// live value always lives in the store after that.
func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		IntervalMinutes: 15,
		Enabled:         true,
		PromptPackID:    "health_check",
	}
}

// DefaultThrottleConfig mirrors throttle.DefaultProfile's ceilings
// (global 50, provider 10, model 3).
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		GlobalLimit:   50,
		ProviderLimit: 10,
		ModelLimit:    3,
	}
}

// DefaultCORSConfig returns an empty allow-list — CORS origins are an
// optional, deployment-specific setting, never a wildcard default.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowedOrigins: []string{}}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default telemetry/tracing
// configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		ServiceName:  "arguslm",
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
	}
}
