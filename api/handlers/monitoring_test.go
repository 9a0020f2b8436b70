package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitoringHandler_GetConfig_CreatesDefault(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/config", nil)
	w := httptest.NewRecorder()
	h.GetConfig(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var cfg store.MonitoringConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, 15, cfg.IntervalMinutes)
	assert.True(t, cfg.Enabled)
}

func TestMonitoringHandler_UpdateConfig(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	interval := 30
	enabled := false
	body, _ := json.Marshal(api.MonitoringConfigRequest{IntervalMinutes: &interval, Enabled: &enabled})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/monitoring/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.UpdateConfig(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var cfg store.MonitoringConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, 30, cfg.IntervalMinutes)
	assert.False(t, cfg.Enabled)
}

func TestMonitoringHandler_UpdateConfig_UnknownPromptPack(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	bogus := "not-a-real-pack"
	body, _ := json.Marshal(api.MonitoringConfigRequest{PromptPackID: &bogus})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/monitoring/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.UpdateConfig(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMonitoringHandler_Run_ReturnsAccepted(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitoring/run", nil)
	w := httptest.NewRecorder()
	h.Run(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var resp api.RunMonitoringResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
}

func TestMonitoringHandler_Uptime_Empty(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/uptime", nil)
	w := httptest.NewRecorder()
	h.Uptime(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	checks, _ := resp.Data.([]any)
	assert.Empty(t, checks)
}

func TestMonitoringHandler_Uptime_InvalidSince(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/uptime?since=not-a-date", nil)
	w := httptest.NewRecorder()
	h.Uptime(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMonitoringHandler_ExportUptime_CSV(t *testing.T) {
	deps := newTestDeps(t)
	acct := seedProviderAccount(t, deps)
	m := &store.Model{ProviderAccountID: acct.ID, ModelID: "gpt-4o", EnabledForMonitoring: true, EnabledForBenchmark: true}
	require.NoError(t, deps.Store.CreateModel(t.Context(), m))
	require.NoError(t, deps.Store.CreateUptimeCheck(t.Context(), &store.UptimeCheck{ModelID: m.ID, Status: store.StatusUp}))
	h := NewMonitoringHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/uptime/export?format=csv", nil)
	w := httptest.NewRecorder()
	h.ExportUptime(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "model_name,provider,status,latency_ms,error,timestamp")
}

func TestMonitoringHandler_PromptPacks(t *testing.T) {
	deps := newTestDeps(t)
	h := NewMonitoringHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/prompt-packs", nil)
	w := httptest.NewRecorder()
	h.PromptPacks(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	packs, _ := resp.Data.([]any)
	assert.NotEmpty(t, packs)
}
