package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedModel(t *testing.T, deps *Deps) store.Model {
	t.Helper()
	acct := seedProviderAccount(t, deps)
	m := &store.Model{ProviderAccountID: acct.ID, ModelID: "gpt-4o", EnabledForMonitoring: true, EnabledForBenchmark: true}
	require.NoError(t, deps.Store.CreateModel(t.Context(), m))
	return *m
}

func TestBenchmarkHandler_Create_EmptyModelIDs(t *testing.T) {
	deps := newTestDeps(t)
	h := NewBenchmarkHandler(deps)

	body, _ := json.Marshal(api.BenchmarkRunRequest{Name: "run"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/benchmarks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBenchmarkHandler_Create_UnknownModel(t *testing.T) {
	deps := newTestDeps(t)
	h := NewBenchmarkHandler(deps)

	body, _ := json.Marshal(api.BenchmarkRunRequest{Name: "run", ModelIDs: []uuid.UUID{uuid.New()}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/benchmarks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBenchmarkHandler_Create_Accepted(t *testing.T) {
	deps := newTestDeps(t)
	m := seedModel(t, deps)
	h := NewBenchmarkHandler(deps)

	body, _ := json.Marshal(api.BenchmarkRunRequest{Name: "smoke", ModelIDs: []uuid.UUID{m.ID}, PromptPackID: "synthetic_medium"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/benchmarks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp api.BenchmarkRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)

	runID, err := uuid.Parse(resp.RunID)
	require.NoError(t, err)
	run, err := deps.Store.GetBenchmarkRun(t.Context(), runID)
	require.NoError(t, err)
	assert.Equal(t, "smoke", run.Name)
}

func TestBenchmarkHandler_List(t *testing.T) {
	deps := newTestDeps(t)
	h := NewBenchmarkHandler(deps)

	require.NoError(t, deps.Store.CreateBenchmarkRun(t.Context(), &store.BenchmarkRun{
		Name: "r1", Status: store.RunPending, TriggeredBy: store.TriggeredByUser, PromptPackID: "synthetic_medium",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmarks", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	runs, _ := resp.Data.([]any)
	assert.Len(t, runs, 1)
}

func TestBenchmarkHandler_Get_NotFound(t *testing.T) {
	deps := newTestDeps(t)
	h := NewBenchmarkHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmarks/"+uuidNew(), nil)
	req.SetPathValue("id", uuidNew())
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBenchmarkHandler_Results_Empty(t *testing.T) {
	deps := newTestDeps(t)
	h := NewBenchmarkHandler(deps)

	run := &store.BenchmarkRun{Name: "r", Status: store.RunCompleted, TriggeredBy: store.TriggeredByUser, PromptPackID: "synthetic_medium"}
	require.NoError(t, deps.Store.CreateBenchmarkRun(t.Context(), run))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmarks/"+run.ID.String()+"/results", nil)
	req.SetPathValue("id", run.ID.String())
	w := httptest.NewRecorder()
	h.Results(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var detail api.BenchmarkDetailResponse
	require.NoError(t, json.Unmarshal(data, &detail))
	assert.Equal(t, string(store.RunCompleted), detail.Status)
	assert.Empty(t, detail.Results)
}

func TestBenchmarkHandler_Export_CSV(t *testing.T) {
	deps := newTestDeps(t)
	m := seedModel(t, deps)
	run := &store.BenchmarkRun{Name: "r", Status: store.RunCompleted, TriggeredBy: store.TriggeredByUser, PromptPackID: "synthetic_medium"}
	require.NoError(t, deps.Store.CreateBenchmarkRun(t.Context(), run))
	require.NoError(t, deps.Store.CreateBenchmarkResult(t.Context(), &store.BenchmarkResult{RunID: run.ID, ModelID: m.ID, TTFTMS: 100, TPS: 20}))
	h := NewBenchmarkHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmarks/"+run.ID.String()+"/export?format=csv", nil)
	req.SetPathValue("id", run.ID.String())
	w := httptest.NewRecorder()
	h.Export(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "model_name,provider,ttft_ms,tps")
}
