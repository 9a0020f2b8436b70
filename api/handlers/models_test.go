package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedProviderAccount creates a ProviderAccount with a real (if hollow)
// encrypted credentials blob, so any handler path that decrypts it
// (Test, RefreshModels, the benchmark executor) succeeds rather than
// failing on a too-short blob.
func seedProviderAccount(t *testing.T, deps *Deps) store.ProviderAccount {
	t.Helper()
	blob, err := store.EncryptCredentials(testEncryptionKey, provider.Credentials{APIKey: "sk-test"})
	require.NoError(t, err)
	acct := &store.ProviderAccount{Kind: "openai", DisplayName: "seed", Enabled: true, Credentials: blob}
	require.NoError(t, deps.Store.CreateProviderAccount(t.Context(), acct))
	return *acct
}

func TestModelHandler_Create(t *testing.T) {
	deps := newTestDeps(t)
	acct := seedProviderAccount(t, deps)
	h := NewModelHandler(deps)

	body, _ := json.Marshal(api.ModelRequest{ProviderAccountID: acct.ID, ModelID: "gpt-4o-mini"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/models", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestModelHandler_Create_InvalidModelID(t *testing.T) {
	deps := newTestDeps(t)
	acct := seedProviderAccount(t, deps)
	h := NewModelHandler(deps)

	body, _ := json.Marshal(api.ModelRequest{ProviderAccountID: acct.ID, ModelID: "has a space"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/models", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestModelHandler_List_FilteredByProvider(t *testing.T) {
	deps := newTestDeps(t)
	acct1 := seedProviderAccount(t, deps)
	acct2 := seedProviderAccount(t, deps)
	h := NewModelHandler(deps)

	for _, acct := range []store.ProviderAccount{acct1, acct1, acct2} {
		body, _ := json.Marshal(api.ModelRequest{ProviderAccountID: acct.ID, ModelID: "m-" + acct.ID.String()[:8]})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/models", bytes.NewReader(body))
		w := httptest.NewRecorder()
		h.Create(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models?provider_account_id="+acct1.ID.String(), nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items, _ := resp.Data.([]any)
	assert.Len(t, items, 2)
}

func TestModelHandler_Update(t *testing.T) {
	deps := newTestDeps(t)
	acct := seedProviderAccount(t, deps)
	m := &store.Model{ProviderAccountID: acct.ID, ModelID: "gpt-4o", EnabledForMonitoring: true, EnabledForBenchmark: true}
	require.NoError(t, deps.Store.CreateModel(t.Context(), m))
	h := NewModelHandler(deps)

	disabled := false
	body, _ := json.Marshal(api.ModelRequest{EnabledForMonitoring: &disabled})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/models/"+m.ID.String(), bytes.NewReader(body))
	req.SetPathValue("id", m.ID.String())
	w := httptest.NewRecorder()
	h.Update(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	got, err := deps.Store.GetModel(t.Context(), m.ID)
	require.NoError(t, err)
	assert.False(t, got.EnabledForMonitoring)
	assert.True(t, got.EnabledForBenchmark)
}

func TestModelHandler_Get_NotFound(t *testing.T) {
	deps := newTestDeps(t)
	h := NewModelHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models/"+uuidNew(), nil)
	req.SetPathValue("id", uuidNew())
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModelHandler_Delete(t *testing.T) {
	deps := newTestDeps(t)
	acct := seedProviderAccount(t, deps)
	m := &store.Model{ProviderAccountID: acct.ID, ModelID: "gpt-4o", EnabledForMonitoring: true, EnabledForBenchmark: true}
	require.NoError(t, deps.Store.CreateModel(t.Context(), m))
	h := NewModelHandler(deps)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/models/"+m.ID.String(), nil)
	req.SetPathValue("id", m.ID.String())
	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
