package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// Database connection pool manager
// =============================================================================

// PoolManager wraps a GORM DB instance and its underlying sql.DB,
// adding pool tuning, health checks, and transactional helpers.
type PoolManager struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	config PoolConfig
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// PoolConfig tunes connection pool sizing and health-check cadence.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns        int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime     time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime     time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultPoolConfig returns sane pool defaults for a single-instance deployment.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     10 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
	}
}

// Validate reports an error unless both connection limits are positive
// and MaxIdleConns does not exceed MaxOpenConns.
func (c PoolConfig) Validate() error {
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be positive, got %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max_idle_conns must be positive, got %d", c.MaxIdleConns)
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) must not exceed max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	return nil
}

// NewPoolManager configures db's underlying sql.DB per config and
// starts the background health-check loop if enabled.
func NewPoolManager(db *gorm.DB, config PoolConfig, logger *zap.Logger) (*PoolManager, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	pm := &PoolManager{
		db:     db,
		sqlDB:  sqlDB,
		config: config,
		logger: logger.With(zap.String("component", "db_pool")),
	}

	if config.HealthCheckInterval > 0 {
		go pm.healthCheckLoop()
	}

	logger.Info("database pool initialized",
		zap.Int("max_idle_conns", config.MaxIdleConns),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Duration("conn_max_lifetime", config.ConnMaxLifetime),
	)

	return pm, nil
}

// =============================================================================
// Core methods
// =============================================================================

// DB returns the underlying GORM instance.
func (pm *PoolManager) DB() *gorm.DB {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.db
}

// Ping checks database connectivity.
func (pm *PoolManager) Ping(ctx context.Context) error {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.closed {
		return fmt.Errorf("pool is closed")
	}

	return pm.sqlDB.PingContext(ctx)
}

// Stats returns the raw connection pool statistics.
func (pm *PoolManager) Stats() sql.DBStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.sqlDB.Stats()
}

// Close shuts down the connection pool.
func (pm *PoolManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.closed {
		return nil
	}

	pm.closed = true
	pm.logger.Info("closing database pool")

	return pm.sqlDB.Close()
}

// =============================================================================
// Health checks
// =============================================================================

// healthCheckLoop periodically pings the database and logs the result.
func (pm *PoolManager) healthCheckLoop() {
	ticker := time.NewTicker(pm.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		pm.mu.RLock()
		if pm.closed {
			pm.mu.RUnlock()
			return
		}
		pm.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := pm.Ping(ctx); err != nil {
			pm.logger.Error("database health check failed", zap.Error(err))
		} else {
			stats := pm.Stats()
			pm.logger.Debug("database health check passed",
				zap.Int("open_connections", stats.OpenConnections),
				zap.Int("in_use", stats.InUse),
				zap.Int("idle", stats.Idle),
			)
		}
		cancel()
	}
}

// =============================================================================
// Stats
// =============================================================================

// PoolStats is a friendlier, JSON-serializable view of sql.DBStats.
type PoolStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// GetStats returns PoolManager's current statistics in friendly form.
func (pm *PoolManager) GetStats() PoolStats {
	stats := pm.Stats()
	return PoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

// =============================================================================
// Transaction management
// =============================================================================

// TransactionFunc is a unit of work run inside a transaction.
type TransactionFunc func(tx *gorm.DB) error

// WithTransaction runs fn inside a single transaction.
func (pm *PoolManager) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	pm.mu.RLock()
	if pm.closed {
		pm.mu.RUnlock()
		return fmt.Errorf("pool is closed")
	}
	db := pm.db
	pm.mu.RUnlock()

	return db.WithContext(ctx).Transaction(fn)
}

// WithTransactionRetry runs fn inside a transaction, retrying with
// exponential backoff on retryable errors (deadlocks, serialization
// failures, transient connection errors).
func (pm *PoolManager) WithTransactionRetry(ctx context.Context, maxRetries int, fn TransactionFunc) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := pm.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return err
		}

		pm.logger.Warn("transaction failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		backoff := time.Duration(1<<uint(i)) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("transaction failed after %d retries: %w", maxRetries, lastErr)
}

// isRetryableError reports whether err represents a transient
// condition worth retrying (deadlock, serialization failure, lock
// timeout, or a reset/refused/bad connection).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "deadlock") {
		return true
	}

	// PostgreSQL SQLSTATE 40001
	if strings.Contains(errMsg, "serialization failure") || strings.Contains(errMsg, "40001") {
		return true
	}

	if strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") {
		return true
	}

	if strings.Contains(errMsg, "lock timeout") || strings.Contains(errMsg, "lock wait timeout") {
		return true
	}

	if strings.Contains(errMsg, "bad connection") {
		return true
	}

	return false
}
