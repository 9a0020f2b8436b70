package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// Collector tests
// =============================================================================

func TestNewCollector(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.providerCallsTotal)
	assert.NotNil(t, collector.providerCallDuration)
	assert.NotNil(t, collector.providerTTFTSeconds)
	assert.NotNil(t, collector.providerTokensTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/test", 200, 50*time.Millisecond, 512, 1024)

	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollector_RecordProviderCall(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordProviderCall(
		"openai",
		"gpt-4",
		"success",
		500*time.Millisecond,
		120*time.Millisecond,
		100, // input tokens
		50,  // output tokens
	)

	count := testutil.CollectAndCount(collector.providerCallsTotal)
	assert.Greater(t, count, 0)

	ttftCount := testutil.CollectAndCount(collector.providerTTFTSeconds)
	assert.Greater(t, ttftCount, 0)

	tokensCount := testutil.CollectAndCount(collector.providerTokensTotal)
	assert.Greater(t, tokensCount, 0)
}

func TestCollector_RecordProviderCall_NonStreamingSkipsTTFT(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordProviderCall("anthropic", "claude", "success", 400*time.Millisecond, 0, 80, 40)

	ttftCount := testutil.CollectAndCount(collector.providerTTFTSeconds)
	assert.Equal(t, 0, ttftCount)
}

func TestCollector_RecordThrottleWait(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordThrottleWait("global", 25*time.Millisecond)
	collector.SetThrottleQueueDepth("global", 3)

	count := testutil.CollectAndCount(collector.throttleWaitSeconds)
	assert.Greater(t, count, 0)

	depthCount := testutil.CollectAndCount(collector.throttleQueueDepth)
	assert.Greater(t, depthCount, 0)
}

func TestCollector_RecordBenchmark(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordBenchmarkTask("ok")
	collector.RecordBenchmarkRun("completed", 45*time.Second)

	taskCount := testutil.CollectAndCount(collector.benchmarkTasksTotal)
	assert.Greater(t, taskCount, 0)

	runCount := testutil.CollectAndCount(collector.benchmarkRunDuration)
	assert.Greater(t, runCount, 0)
}

func TestCollector_RecordAlertEmitted(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordAlertEmitted("latency_threshold")

	count := testutil.CollectAndCount(collector.alertsEmittedTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordCacheHit("model_discovery")
	collector.RecordCacheMiss("model_discovery")

	hitCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, hitCount, 0)

	missCount := testutil.CollectAndCount(collector.cacheMisses)
	assert.Greater(t, missCount, 0)
}

func TestCollector_RecordDatabaseQuery(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDBQuery("postgres", "SELECT", 20*time.Millisecond)

	count := testutil.CollectAndCount(collector.dbQueryDuration)
	assert.Greater(t, count, 0)
}

func TestCollector_UpdateConnectionPool(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDBConnections("postgres", 10, 5)

	openCount := testutil.CollectAndCount(collector.dbConnectionsOpen)
	assert.Greater(t, openCount, 0)

	idleCount := testutil.CollectAndCount(collector.dbConnectionsIdle)
	assert.Greater(t, idleCount, 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordProviderCall("openai", "gpt-4", "success", 500*time.Millisecond, 100*time.Millisecond, 100, 50)
			collector.RecordCacheHit("model_discovery")
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	httpCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, httpCount, 0)

	providerCount := testutil.CollectAndCount(collector.providerCallsTotal)
	assert.Greater(t, providerCount, 0)

	cacheCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, cacheCount, 0)
}

func TestCollector_MetricsRegistration(t *testing.T) {
	logger := zap.NewNop()

	registry := prometheus.NewRegistry()

	collector := NewCollector(nextTestNamespace(), logger)

	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.httpRequestDuration)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 0, 0)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)
}
