// Package cache provides internal cache management.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// Cache manager
// =============================================================================

// Manager wraps a Redis client with pool management, health checks,
// and JSON convenience helpers.
type Manager struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Config tunes the Redis connection and its health-check cadence.
type Config struct {
	Addr                string        `yaml:"addr" json:"addr"`
	Password            string        `yaml:"password" json:"password"`
	DB                  int           `yaml:"db" json:"db"`
	DefaultTTL          time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxRetries          int           `yaml:"max_retries" json:"max_retries"`
	PoolSize            int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns        int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig returns sane cache defaults for a single-instance deployment.
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		Password:            "",
		DB:                  0,
		DefaultTTL:          5 * time.Minute,
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// NewManager connects to Redis per config and starts the background
// health-check loop if enabled.
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "cache")),
	}

	if config.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	logger.Info("cache manager initialized",
		zap.String("addr", config.Addr),
		zap.Int("pool_size", config.PoolSize),
	)

	return m, nil
}

// =============================================================================
// Core methods
// =============================================================================

// Get returns the cached value for key, or ErrCacheMiss if absent.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", fmt.Errorf("cache manager is closed")
	}

	val, err := m.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}

	return val, nil
}

// Set stores value under key. A zero ttl falls back to config.DefaultTTL.
func (m *Manager) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	err := m.redis.Set(ctx, key, value, ttl).Err()
	if err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// GetJSON fetches key and unmarshals it into dest.
func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

// SetJSON marshals value and stores it under key.
func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.Set(ctx, key, string(data), ttl)
}

// Delete removes the given keys.
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	if len(keys) == 0 {
		return nil
	}

	err := m.redis.Del(ctx, keys...).Err()
	if err != nil {
		m.logger.Error("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete failed: %w", err)
	}

	return nil
}

// Exists returns how many of the given keys exist.
func (m *Manager) Exists(ctx context.Context, keys ...string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, fmt.Errorf("cache manager is closed")
	}

	count, err := m.redis.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache exists check failed: %w", err)
	}

	return count, nil
}

// Expire sets key's remaining time-to-live.
func (m *Manager) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	err := m.redis.Expire(ctx, key, ttl).Err()
	if err != nil {
		return fmt.Errorf("cache expire failed: %w", err)
	}

	return nil
}

// Ping checks Redis connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("cache manager is closed")
	}

	return m.redis.Ping(ctx).Err()
}

// Close shuts down the cache manager's Redis connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	m.logger.Info("closing cache manager")

	return m.redis.Close()
}

// =============================================================================
// Health checks
// =============================================================================

// healthCheckLoop periodically pings Redis and logs the result.
func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.RLock()
		if m.closed {
			m.mu.RUnlock()
			return
		}
		m.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.Ping(ctx); err != nil {
			m.logger.Error("cache health check failed", zap.Error(err))
		} else {
			m.logger.Debug("cache health check passed")
		}
		cancel()
	}
}

// =============================================================================
// Stats
// =============================================================================

// Stats is a cache-wide statistics snapshot.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Keys        int64  `json:"keys"`
	UsedMemory  int64  `json:"used_memory"`
	MaxMemory   int64  `json:"max_memory"`
	Connections int    `json:"connections"`
}

// GetStats checks that Redis answers an INFO request and returns a
// Stats value. The INFO reply is not parsed, so every field of the
// returned Stats is zero.
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("cache manager is closed")
	}

	_, err := m.redis.Info(ctx, "stats", "memory", "clients").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis info: %w", err)
	}

	stats := &Stats{}

	return stats, nil
}

// =============================================================================
// Helpers
// =============================================================================

// ErrCacheMiss is returned by Get when key is absent.
var ErrCacheMiss = fmt.Errorf("cache miss")

// IsCacheMiss reports whether err is ErrCacheMiss.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}
