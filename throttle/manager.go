// Package throttle implements the hierarchical concurrency limiter of
// spec §4.4/§5: every in-flight call acquires a global slot, then a
// per-provider slot, then a per-model slot, in that order, releasing
// in reverse. Semaphore buckets for a given provider/model key are
// created lazily on first use. An optional per-provider token-bucket
// rate limiter can be layered in front of the provider slot for
// providers whose quota is QPS-shaped rather than concurrency-shaped.
//
// Adapted from app/core/throttle.py's ThrottleManager: same
// global→provider→model acquisition order and lazy double-checked
// bucket creation, re-expressed with Go channel-based counting
// semaphores (a buffered chan struct{}) instead of asyncio.Semaphore,
// following the lock/double-check pattern the teacher uses for lazy
// per-key state in llm/health_monitor.go's QPSCounter map — the QPS
// side of that map is replaced here with a real token bucket
// (golang.org/x/time/rate) rather than the teacher's hand-rolled
// 60-bucket second-resolution counter, since a token bucket paces
// requests instead of merely observing them.
package throttle

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Profile configures the three concurrency ceilings. Matches
// ThrottleProfile's defaults: global 50, provider 10, model 3.
type Profile struct {
	GlobalLimit   int
	ProviderLimit int
	ModelLimit    int
}

// DefaultProfile returns spec §4.4's default ceilings.
func DefaultProfile() Profile {
	return Profile{GlobalLimit: 50, ProviderLimit: 10, ModelLimit: 3}
}

// Validate rejects a non-positive limit, mirroring ThrottleProfile's
// __post_init__ check.
func (p Profile) Validate() error {
	if p.GlobalLimit <= 0 {
		return fmt.Errorf("throttle: global_limit must be positive, got %d", p.GlobalLimit)
	}
	if p.ProviderLimit <= 0 {
		return fmt.Errorf("throttle: provider_limit must be positive, got %d", p.ProviderLimit)
	}
	if p.ModelLimit <= 0 {
		return fmt.Errorf("throttle: model_limit must be positive, got %d", p.ModelLimit)
	}
	return nil
}

type semaphore chan struct{}

func newSemaphore(n int) semaphore { return make(semaphore, n) }

func (s semaphore) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s semaphore) release() { <-s }

func (s semaphore) stats(limit int) Stats {
	return Stats{Limit: limit, Available: limit - len(s)}
}

// Stats reports one bucket's configured limit and currently-available
// slots.
type Stats struct {
	Limit     int
	Available int
}

// Manager enforces the three-tier concurrency ceiling.
type Manager struct {
	profile Profile

	global semaphore

	mu       sync.Mutex
	provider map[string]semaphore
	model    map[string]semaphore

	qpsMu sync.Mutex
	qps   map[string]*rate.Limiter
}

// NewManager builds a Manager from profile. A zero-value Profile is
// replaced with DefaultProfile().
func NewManager(profile Profile) *Manager {
	if profile.GlobalLimit == 0 && profile.ProviderLimit == 0 && profile.ModelLimit == 0 {
		profile = DefaultProfile()
	}
	return &Manager{
		profile:  profile,
		global:   newSemaphore(profile.GlobalLimit),
		provider: make(map[string]semaphore),
		model:    make(map[string]semaphore),
		qps:      make(map[string]*rate.Limiter),
	}
}

// SetProviderQPS installs a token-bucket rate limit for providerKey,
// in addition to its concurrency slot. Acquire calls blocks on this
// limiter (after taking the provider's concurrency slot) whenever one
// is configured. Passing qps <= 0 removes any limiter for the key.
func (m *Manager) SetProviderQPS(providerKey string, qps float64, burst int) {
	m.qpsMu.Lock()
	defer m.qpsMu.Unlock()
	if qps <= 0 {
		delete(m.qps, providerKey)
		return
	}
	if burst < 1 {
		burst = 1
	}
	m.qps[providerKey] = rate.NewLimiter(rate.Limit(qps), burst)
}

func (m *Manager) qpsLimiter(providerKey string) *rate.Limiter {
	m.qpsMu.Lock()
	defer m.qpsMu.Unlock()
	return m.qps[providerKey]
}

func (m *Manager) providerSemaphore(key string) semaphore {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.provider[key]
	if !ok {
		sem = newSemaphore(m.profile.ProviderLimit)
		m.provider[key] = sem
	}
	return sem
}

func (m *Manager) modelSemaphore(key string) semaphore {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.model[key]
	if !ok {
		sem = newSemaphore(m.profile.ModelLimit)
		m.model[key] = sem
	}
	return sem
}

// Release gives back all three slots acquired by a prior Acquire,
// innermost first, mirroring the original's nested context-manager
// exit order.
type Release func()

// Acquire blocks (respecting ctx) until a global, provider, and model
// slot are all held, in that order, and returns a Release func the
// caller must invoke exactly once — typically via defer — to give
// them back in reverse order.
func (m *Manager) Acquire(ctx context.Context, providerKey, modelKey string) (Release, error) {
	global := m.global
	if err := global.acquire(ctx); err != nil {
		return nil, err
	}

	providerSem := m.providerSemaphore(providerKey)
	if err := providerSem.acquire(ctx); err != nil {
		global.release()
		return nil, err
	}

	if limiter := m.qpsLimiter(providerKey); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			providerSem.release()
			global.release()
			return nil, err
		}
	}

	modelSem := m.modelSemaphore(modelKey)
	if err := modelSem.acquire(ctx); err != nil {
		providerSem.release()
		global.release()
		return nil, err
	}

	return func() {
		modelSem.release()
		providerSem.release()
		global.release()
	}, nil
}

// Snapshot is the throttle state at one point in time, used for the
// throttle-stats read path.
type Snapshot struct {
	Global   Stats
	Provider map[string]Stats
	Model    map[string]Stats
}

// Stats returns the current availability of every bucket.
func (m *Manager) Stats() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Global:   m.global.stats(m.profile.GlobalLimit),
		Provider: make(map[string]Stats, len(m.provider)),
		Model:    make(map[string]Stats, len(m.model)),
	}
	for key, sem := range m.provider {
		snap.Provider[key] = sem.stats(m.profile.ProviderLimit)
	}
	for key, sem := range m.model {
		snap.Model[key] = sem.stats(m.profile.ModelLimit)
	}
	return snap
}

// Reset replaces every semaphore with a fresh one at the configured
// limits. Must only be called when no request holds a slot — exactly
// the caller contract the original documents on ThrottleManager.reset.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = newSemaphore(m.profile.GlobalLimit)
	m.provider = make(map[string]semaphore)
	m.model = make(map[string]semaphore)
}
