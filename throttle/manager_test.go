package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AcquireRelease_FreesAllThreeSlots(t *testing.T) {
	m := NewManager(Profile{GlobalLimit: 2, ProviderLimit: 1, ModelLimit: 1})

	release, err := m.Acquire(t.Context(), "openai", "gpt-4o")
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Global.Available)
	assert.Equal(t, 0, stats.Provider["openai"].Available)

	release()

	stats = m.Stats()
	assert.Equal(t, 2, stats.Global.Available)
	assert.Equal(t, 1, stats.Provider["openai"].Available)
}

func TestManager_Acquire_ProviderLimitBlocksUntilRelease(t *testing.T) {
	m := NewManager(Profile{GlobalLimit: 5, ProviderLimit: 1, ModelLimit: 5})

	release, err := m.Acquire(t.Context(), "openai", "gpt-4o")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx, "openai", "gpt-4o-mini")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
}

func TestManager_SetProviderQPS_PacesAcquire(t *testing.T) {
	m := NewManager(DefaultProfile())
	m.SetProviderQPS("openai", 1, 1)

	ctx := t.Context()
	r1, err := m.Acquire(ctx, "openai", "gpt-4o")
	require.NoError(t, err)
	r1()

	start := time.Now()
	r2, err := m.Acquire(ctx, "openai", "gpt-4o")
	require.NoError(t, err)
	r2()
	assert.Greater(t, time.Since(start), 400*time.Millisecond)
}

func TestManager_SetProviderQPS_ZeroClearsLimiter(t *testing.T) {
	m := NewManager(DefaultProfile())
	m.SetProviderQPS("openai", 1, 1)
	m.SetProviderQPS("openai", 0, 0)

	assert.Nil(t, m.qpsLimiter("openai"))
}

func TestManager_Reset_RestoresConfiguredLimits(t *testing.T) {
	m := NewManager(Profile{GlobalLimit: 3, ProviderLimit: 2, ModelLimit: 1})

	release, err := m.Acquire(t.Context(), "openai", "gpt-4o")
	require.NoError(t, err)

	m.Reset()

	stats := m.Stats()
	assert.Equal(t, 3, stats.Global.Available)
	assert.Empty(t, stats.Provider)

	release() // releasing the pre-Reset semaphore must not panic or block
}

func TestProfile_Validate_RejectsNonPositiveLimits(t *testing.T) {
	assert.Error(t, Profile{GlobalLimit: 0, ProviderLimit: 1, ModelLimit: 1}.Validate())
	assert.Error(t, Profile{GlobalLimit: 1, ProviderLimit: 0, ModelLimit: 1}.Validate())
	assert.Error(t, Profile{GlobalLimit: 1, ProviderLimit: 1, ModelLimit: 0}.Validate())
	assert.NoError(t, DefaultProfile().Validate())
}
