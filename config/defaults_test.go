package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Database)
	assert.Equal(t, EncryptionConfig{Key: ""}, cfg.Encryption)
	assert.NotEqual(t, MonitoringConfig{}, cfg.Monitoring)
	assert.NotEqual(t, ThrottleConfig{}, cfg.Throttle)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}

func TestDefaultDatabaseConfig(t *testing.T) {
	cfg := DefaultDatabaseConfig()
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "./arguslm.db", cfg.URL)
	assert.False(t, cfg.Echo)
}

func TestDefaultEncryptionConfig(t *testing.T) {
	cfg := DefaultEncryptionConfig()
	assert.Empty(t, cfg.Key, "encryption key must never have a baked-in default")
}

func TestDefaultAuthConfig(t *testing.T) {
	cfg := DefaultAuthConfig()
	assert.Empty(t, cfg.SecretKey, "secret key must never have a baked-in default")
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
}

func TestDefaultMonitoringConfig(t *testing.T) {
	cfg := DefaultMonitoringConfig()
	assert.Equal(t, 15, cfg.IntervalMinutes)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "health_check", cfg.PromptPackID)
}

func TestDefaultThrottleConfig(t *testing.T) {
	cfg := DefaultThrottleConfig()
	assert.Equal(t, 50, cfg.GlobalLimit)
	assert.Equal(t, 10, cfg.ProviderLimit)
	assert.Equal(t, 3, cfg.ModelLimit)
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "arguslm", cfg.ServiceName)
	assert.InDelta(t, 1.0, cfg.SampleRate, 0.001)
}
