package handlers

import (
	"context"
	"testing"

	"github.com/arguslm/arguslm/bus"
	"github.com/arguslm/arguslm/monitoring"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/store"
	"github.com/arguslm/arguslm/throttle"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// uuidNew returns a fresh random UUID string — a convenience for tests
// that need a well-formed but guaranteed-absent id.
func uuidNew() string { return uuid.New().String() }

// testEncryptionKey is a fixed 32-byte AES-256 key for handler tests —
// never used outside this package.
var testEncryptionKey = []byte("01234567890123456789012345678901")[:32]

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&store.ProviderAccount{},
		&store.Model{},
		&store.MonitoringConfig{},
		&store.UptimeCheck{},
		&store.BenchmarkRun{},
		&store.BenchmarkResult{},
		&store.AlertRule{},
		&store.Alert{},
	))
	return db
}

// noopChecker never contacts a real provider — used to build a
// Scheduler that's safe for RunOnce in tests.
func noopChecker(ctx context.Context, m store.Model) store.UptimeCheck {
	return store.UptimeCheck{Status: store.StatusUp}
}

// newTestDeps builds a Deps bundle backed by an in-memory sqlite store,
// an empty provider Registry, and a Scheduler that never calls out to a
// live provider — enough to exercise every handler's request/response
// and store-interaction logic without a network.
func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	db := setupHandlerDB(t)
	logger := zap.NewNop()
	gormStore := store.NewGormStore(db, logger)

	registry := provider.NewRegistry(map[provider.Kind]provider.Invoker{})
	scheduler := monitoring.New(gormStore, noopChecker, logger)

	return &Deps{
		Store:         gormStore,
		Registry:      registry,
		Scheduler:     scheduler,
		Bus:           bus.New(),
		Throttle:      throttle.NewManager(throttle.DefaultProfile()),
		Cache:         nil,
		EncryptionKey: testEncryptionKey,
		Logger:        logger,
	}
}

// fakeInvoker is a provider.Invoker test double whose Complete result is
// configurable per test.
type fakeInvoker struct {
	resp *provider.CompletionResponse
	err  error
}

func (f *fakeInvoker) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return f.resp, f.err
}

func (f *fakeInvoker) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	ch := make(chan provider.StreamChunk)
	close(ch)
	return ch, f.err
}
