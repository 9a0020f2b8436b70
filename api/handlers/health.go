package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// Health check handler
// =============================================================================

// HealthHandler serves liveness/readiness endpoints.
type HealthHandler struct {
	logger *zap.Logger
	checks []HealthCheck
	mu     sync.RWMutex
}

// HealthCheck is a single named dependency check.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthStatus is the readiness/liveness response body.
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single HealthCheck.
type CheckResult struct {
	Status  string `json:"status"` // "pass", "fail"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// NewHealthHandler creates a health handler with no checks registered.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		checks: make([]HealthCheck, 0),
	}
}

// RegisterCheck adds a dependency check to the readiness probe.
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// =============================================================================
// HTTP handlers
// =============================================================================

// HandleHealth serves GET /health — a bare liveness check with no
// dependency probing.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	WriteJSON(w, http.StatusOK, status)
}

// HandleHealthz serves GET /healthz, the Kubernetes liveness probe —
// only confirms the process is running.
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	WriteJSON(w, http.StatusOK, status)
}

// HandleReady serves GET /ready (or /readyz), running every registered
// check and reporting 503 if any fails.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.mu.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult),
	}

	allHealthy := true
	for _, check := range checks {
		start := time.Now()
		err := check.Check(ctx)
		latency := time.Since(start)

		result := CheckResult{
			Status:  "pass",
			Latency: latency.String(),
		}

		if err != nil {
			result.Status = "fail"
			result.Message = err.Error()
			allHealthy = false

			h.logger.Warn("health check failed",
				zap.String("check", check.Name()),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}

		status.Checks[check.Name()] = result
	}

	if !allHealthy {
		status.Status = "unhealthy"
		WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// HandleVersion serves GET /version with build metadata baked in at
// startup.
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		}

		WriteSuccess(w, info)
	}
}

// =============================================================================
// Built-in checks
// =============================================================================

// DatabaseHealthCheck pings the primary database.
type DatabaseHealthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// NewDatabaseHealthCheck wraps a database ping function as a HealthCheck.
func NewDatabaseHealthCheck(name string, ping func(ctx context.Context) error) *DatabaseHealthCheck {
	return &DatabaseHealthCheck{
		name: name,
		ping: ping,
	}
}

func (c *DatabaseHealthCheck) Name() string {
	return c.name
}

func (c *DatabaseHealthCheck) Check(ctx context.Context) error {
	return c.ping(ctx)
}

// RedisHealthCheck pings the cache backend.
type RedisHealthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// NewRedisHealthCheck wraps a Redis ping function as a HealthCheck.
func NewRedisHealthCheck(name string, ping func(ctx context.Context) error) *RedisHealthCheck {
	return &RedisHealthCheck{
		name: name,
		ping: ping,
	}
}

func (c *RedisHealthCheck) Name() string {
	return c.name
}

func (c *RedisHealthCheck) Check(ctx context.Context) error {
	return c.ping(ctx)
}
