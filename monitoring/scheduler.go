// Package monitoring implements the §4.8 process-wide monitoring
// scheduler: a single periodic job that probes every
// enabled-for-monitoring model, persists the results, and hands the
// batch to the alert evaluator.
//
// Grounded on internal/server.Manager's start/stop lifecycle
// (listener + goroutine + mutex + closed flag, Start is non-blocking
// and returns once the goroutine is launched, Shutdown/Stop are
// idempotent) generalized from "serve HTTP until told to stop" to
// "tick every interval until told to stop". No scheduler library is
// introduced — the teacher never imports a cron/job package anywhere
// in the pack, so a plain time.Ticker plus a supervised goroutine is
// the idiomatic match, not an external dependency.
package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arguslm/arguslm/alerting"
	"github.com/arguslm/arguslm/store"
	"go.uber.org/zap"
)

// Checker runs one uptime probe for m, returning the row to persist.
// Bound at wiring time (cmd/arguslm/deps.go) to uptime.Check closed
// over a concrete provider.Invoker/throttle.Manager.
type Checker func(ctx context.Context, m store.Model) store.UptimeCheck

// Scheduler is the process-wide singleton started at bootstrap and
// stopped at shutdown (§4.8).
type Scheduler struct {
	mu     sync.Mutex
	db     store.Store
	check  Checker
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New constructs a Scheduler bound to db and check. It does not start
// any goroutine until Start is called.
func New(db store.Store, check Checker, logger *zap.Logger) *Scheduler {
	return &Scheduler{db: db, check: check, logger: logger.With(zap.String("component", "monitoring_scheduler"))}
}

// Start reads MonitoringConfig once and, if enabled, launches the
// ticking goroutine. Calling Start twice without an intervening Stop
// is a no-op (mirrors Manager.Start's "already started" guard, but a
// second Start returns nil rather than an error, since the scheduler
// is a fire-and-forget background job rather than something callers
// branch on). Start returns an error only after Stop, or when the
// MonitoringConfig row cannot be loaded.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("monitoring scheduler: already stopped")
	}
	if s.cancel != nil {
		return nil
	}

	cfg, err := s.db.GetOrCreateMonitoringConfig(ctx)
	if err != nil {
		return fmt.Errorf("monitoring scheduler: load config: %w", err)
	}
	if !cfg.Enabled {
		s.logger.Info("monitoring disabled at startup, scheduler idle")
		return nil
	}

	s.startLocked(cfg.IntervalMinutes)
	return nil
}

// startLocked assumes s.mu is held.
func (s *Scheduler) startLocked(intervalMinutes int) {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(runCtx, time.Duration(intervalMinutes)*time.Minute)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("monitoring sweep failed", zap.Error(err))
			}
		}
	}
}

// Configure stops the current ticker goroutine (if any) and, if
// enabled, starts a fresh one at the new interval — exactly
// configure_scheduler's remove-then-add-if-enabled semantics from the
// original scheduler.
func (s *Scheduler) Configure(ctx context.Context, intervalMinutes int, enabled bool) error {
	if intervalMinutes < 1 {
		return fmt.Errorf("monitoring scheduler: interval_minutes must be >= 1, got %d", intervalMinutes)
	}

	cfg, err := s.db.GetOrCreateMonitoringConfig(ctx)
	if err != nil {
		return fmt.Errorf("monitoring scheduler: load config: %w", err)
	}
	cfg.IntervalMinutes = intervalMinutes
	cfg.Enabled = enabled
	if err := s.db.UpdateMonitoringConfig(ctx, cfg); err != nil {
		return fmt.Errorf("monitoring scheduler: persist config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if !s.closed && enabled {
		s.startLocked(intervalMinutes)
	}
	return nil
}

// Stop cancels the ticking goroutine and waits for it to exit. Safe to
// call when the scheduler was never started, or more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// RunOnce executes one monitoring sweep synchronously: load every
// enabled model (with its provider eagerly attached), run the checker
// on each, persist every result, run the alert evaluator over the
// batch, and update MonitoringConfig.last_run_at. An error from any
// step is logged by the caller (the ticking loop) — never re-raised
// out of the goroutine, per §4.8's "exceptions never re-raised" rule.
// RunOnce itself returns the error so a manual trigger (API handler)
// can surface it synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	models, err := s.db.ListModelsForMonitoring(ctx)
	if err != nil {
		return fmt.Errorf("list models for monitoring: %w", err)
	}

	var wg sync.WaitGroup
	checks := make([]store.UptimeCheck, len(models))
	for i, m := range models {
		wg.Add(1)
		go func(i int, m store.Model) {
			defer wg.Done()
			checks[i] = s.check(ctx, m)
			checks[i].ModelID = m.ID
		}(i, m)
	}
	wg.Wait()

	for i := range checks {
		if err := s.db.CreateUptimeCheck(ctx, &checks[i]); err != nil {
			s.logger.Error("persist uptime check failed", zap.String("model_id", checks[i].ModelID.String()), zap.Error(err))
		}
	}

	rules, err := s.db.ListAlertRules(ctx, true)
	if err != nil {
		return fmt.Errorf("list alert rules: %w", err)
	}
	if _, err := alerting.Evaluate(ctx, s.db, rules, checks); err != nil {
		s.logger.Error("alert evaluation failed", zap.Error(err))
	}

	cfg, err := s.db.GetOrCreateMonitoringConfig(ctx)
	if err != nil {
		return fmt.Errorf("reload config for last_run_at: %w", err)
	}
	now := time.Now().UTC()
	cfg.LastRunAt = &now
	if err := s.db.UpdateMonitoringConfig(ctx, cfg); err != nil {
		return fmt.Errorf("persist last_run_at: %w", err)
	}

	return nil
}
