package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderHandler_CreateAndGet(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	body, _ := json.Marshal(api.ProviderAccountRequest{
		Kind:        "openai",
		DisplayName: "prod openai",
		Credentials: map[string]string{"api_key": "sk-test"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/providers", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, _ := json.Marshal(resp.Data)
	var acct api.ProviderAccountResponse
	require.NoError(t, json.Unmarshal(data, &acct))
	assert.Equal(t, "prod openai", acct.DisplayName)
	assert.Equal(t, "openai", acct.Kind)
	assert.True(t, acct.Enabled)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+acct.ID.String(), nil)
	getReq.SetPathValue("id", acct.ID.String())
	getW := httptest.NewRecorder()
	h.Get(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
}

func TestProviderHandler_Create_MissingDisplayName(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	body, _ := json.Marshal(api.ProviderAccountRequest{Kind: "openai"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/providers", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProviderHandler_CredentialsNeverInResponse(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	body, _ := json.Marshal(api.ProviderAccountRequest{
		Kind: "openai", DisplayName: "x",
		Credentials: map[string]string{"api_key": "sk-super-secret"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/providers", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.NotContains(t, w.Body.String(), "sk-super-secret")
}

func TestProviderHandler_Get_NotFound(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+uuidNew(), nil)
	req.SetPathValue("id", uuidNew())
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProviderHandler_Get_InvalidID(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProviderHandler_List(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	for _, name := range []string{"a", "b"} {
		body, _ := json.Marshal(api.ProviderAccountRequest{Kind: "anthropic", DisplayName: name})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/providers", bytes.NewReader(body))
		w := httptest.NewRecorder()
		h.Create(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	w := httptest.NewRecorder()
	h.List(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items, _ := resp.Data.([]any)
	assert.Len(t, items, 2)
}

func TestProviderHandler_Update(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	acct := createTestProvider(t, h, "openai", "before")

	body, _ := json.Marshal(api.ProviderAccountRequest{DisplayName: "after"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/providers/"+acct.ID.String(), bytes.NewReader(body))
	req.SetPathValue("id", acct.ID.String())
	w := httptest.NewRecorder()
	h.Update(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var updated api.ProviderAccountResponse
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, "after", updated.DisplayName)
}

func TestProviderHandler_Delete(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	acct := createTestProvider(t, h, "openai", "to-delete")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/providers/"+acct.ID.String(), nil)
	req.SetPathValue("id", acct.ID.String())
	w := httptest.NewRecorder()
	h.Delete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+acct.ID.String(), nil)
	getReq.SetPathValue("id", acct.ID.String())
	getW := httptest.NewRecorder()
	h.Get(getW, getReq)
	assert.Equal(t, http.StatusNotFound, getW.Code)
}

func TestProviderHandler_Catalog(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/catalog", nil)
	w := httptest.NewRecorder()
	h.Catalog(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	entries, _ := resp.Data.([]any)
	assert.NotEmpty(t, entries)
}

func TestProviderHandler_TestConnection_NoInvokerWired(t *testing.T) {
	deps := newTestDeps(t)
	h := NewProviderHandler(deps)

	body, _ := json.Marshal(api.TestConnectionRequest{Kind: "openai", Credentials: map[string]string{"api_key": "sk-x"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/providers/test-connection", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.TestConnection(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var result api.TestConnectionResponse
	require.NoError(t, json.Unmarshal(data, &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no invoker wired")
}

func TestProviderHandler_TestConnection_Success(t *testing.T) {
	deps := newTestDeps(t)
	deps.Registry = provider.NewRegistry(map[provider.Kind]provider.Invoker{
		provider.KindOpenAI: &fakeInvoker{resp: &provider.CompletionResponse{Content: "pong", CreatedAt: time.Now()}},
	})
	h := NewProviderHandler(deps)

	body, _ := json.Marshal(api.TestConnectionRequest{Kind: "openai", Credentials: map[string]string{"api_key": "sk-x"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/providers/test-connection", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.TestConnection(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var result api.TestConnectionResponse
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Success)
}

func createTestProvider(t *testing.T, h *ProviderHandler, kind, displayName string) api.ProviderAccountResponse {
	t.Helper()
	body, _ := json.Marshal(api.ProviderAccountRequest{Kind: kind, DisplayName: displayName})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/providers", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var acct api.ProviderAccountResponse
	require.NoError(t, json.Unmarshal(data, &acct))
	return acct
}
