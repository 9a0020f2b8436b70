package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/provider/discovery"
	"github.com/arguslm/arguslm/store"
	"github.com/arguslm/arguslm/throttle"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderHandler serves the /providers resource (§6.3).
type ProviderHandler struct {
	*Deps
}

// NewProviderHandler builds a ProviderHandler.
func NewProviderHandler(d *Deps) *ProviderHandler { return &ProviderHandler{Deps: d} }

func credentialsFromMap(m map[string]string) provider.Credentials {
	return provider.Credentials{
		APIKey:     m["api_key"],
		BaseURL:    m["base_url"],
		Region:     m["region"],
		APIVersion: m["api_version"],
	}
}

func toProviderAccountResponse(a store.ProviderAccount) api.ProviderAccountResponse {
	return api.ProviderAccountResponse{
		ID:          a.ID,
		Kind:        string(a.Kind),
		DisplayName: a.DisplayName,
		Enabled:     a.Enabled,
		QPSLimit:    a.QPSLimit,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// applyProviderQPS installs (or clears) acct's token-bucket rate limit
// on the shared throttle manager. It is set under both keys the
// provider-calling paths acquire a slot with — the uptime checker
// keys its provider bucket by provider kind (uptime/check.go), the
// benchmark orchestrator by account id (benchmarks.go) — so the limit
// applies regardless of which caller reaches this account first.
func applyProviderQPS(throttleMgr *throttle.Manager, acct store.ProviderAccount) {
	throttleMgr.SetProviderQPS(string(acct.Kind), acct.QPSLimit, int(acct.QPSLimit)+1)
	throttleMgr.SetProviderQPS(acct.ID.String(), acct.QPSLimit, int(acct.QPSLimit)+1)
}

// Create handles POST /providers.
func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.ProviderAccountRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	if req.DisplayName == "" {
		WriteError(w, apperr.New(apperr.CodeValidation, "display_name is required"), h.Logger)
		return
	}

	creds := credentialsFromMap(req.Credentials)
	blob, err := store.EncryptCredentials(h.EncryptionKey, creds)
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeInternal, "encrypt credentials").WithCause(err), h.Logger)
		return
	}

	acct := &store.ProviderAccount{
		ID:          uuid.New(),
		Kind:        store.ProviderKind(req.Kind),
		DisplayName: req.DisplayName,
		Credentials: blob,
		Enabled:     req.Enabled == nil || *req.Enabled,
	}
	if req.QPSLimit != nil {
		acct.QPSLimit = *req.QPSLimit
	}
	if err := h.Store.CreateProviderAccount(r.Context(), acct); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	applyProviderQPS(h.Throttle, *acct)
	WriteCreated(w, toProviderAccountResponse(*acct))
}

// List handles GET /providers.
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListProviderAccounts(r.Context())
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	out := make([]api.ProviderAccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = toProviderAccountResponse(a)
	}
	WriteSuccess(w, out)
}

// Get handles GET /providers/{id}.
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	acct, err := h.Store.GetProviderAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, toProviderAccountResponse(*acct))
}

// Update handles PATCH /providers/{id}.
func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	acct, err := h.Store.GetProviderAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	var req api.ProviderAccountRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	if req.DisplayName != "" {
		acct.DisplayName = req.DisplayName
	}
	if req.Kind != "" {
		acct.Kind = store.ProviderKind(req.Kind)
	}
	if req.Enabled != nil {
		acct.Enabled = *req.Enabled
	}
	if req.QPSLimit != nil {
		acct.QPSLimit = *req.QPSLimit
	}
	if req.Credentials != nil {
		blob, err := store.EncryptCredentials(h.EncryptionKey, credentialsFromMap(req.Credentials))
		if err != nil {
			WriteError(w, apperr.New(apperr.CodeInternal, "encrypt credentials").WithCause(err), h.Logger)
			return
		}
		acct.Credentials = blob
	}

	if err := h.Store.UpdateProviderAccount(r.Context(), acct); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	applyProviderQPS(h.Throttle, *acct)
	WriteSuccess(w, toProviderAccountResponse(*acct))
}

// Delete handles DELETE /providers/{id}. A 409 is returned if the
// account has any benchmark history (enforced inside the store).
func (h *ProviderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	if err := h.Store.DeleteProviderAccount(r.Context(), id); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteNoContent(w)
}

// TestConnection handles POST /providers/test-connection — a
// pre-creation connectivity check using credentials from the request
// body rather than a stored account.
func (h *ProviderHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req api.TestConnectionRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	target := provider.Target{
		Kind:        provider.Kind(req.Kind),
		ModelID:     req.ModelID,
		Credentials: credentialsFromMap(req.Credentials),
	}
	WriteSuccess(w, h.testTarget(r.Context(), target))
}

// Test handles POST /providers/{id}/test — a connectivity check using
// the account's own stored credentials and the first model listed for
// it, whether or not that model is enabled for monitoring.
func (h *ProviderHandler) Test(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	acct, err := h.Store.GetProviderAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	creds, err := store.DecryptCredentials(h.EncryptionKey, acct.Credentials)
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeInternal, "decrypt credentials").WithCause(err), h.Logger)
		return
	}

	modelID := ""
	models, err := h.Store.ListModels(r.Context(), &id)
	if err == nil && len(models) > 0 {
		modelID = models[0].ModelID
	}

	target := provider.Target{Kind: provider.Kind(acct.Kind), ModelID: modelID, Credentials: creds}
	WriteSuccess(w, h.testTarget(r.Context(), target))
}

func (h *ProviderHandler) testTarget(ctx context.Context, target provider.Target) api.TestConnectionResponse {
	inv, ok := h.Registry.Resolve(target.Kind)
	if !ok {
		return api.TestConnectionResponse{Success: false, Error: "no invoker wired for provider kind"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := inv.Complete(ctx, target, provider.CompletionRequest{
		Messages:  []provider.Message{{Role: provider.RoleUser, Content: "ping"}},
		MaxTokens: 8,
	})
	latency := time.Since(start)
	if err != nil {
		return api.TestConnectionResponse{Success: false, LatencyMS: latency.Milliseconds(), Error: err.Error()}
	}
	return api.TestConnectionResponse{Success: true, LatencyMS: latency.Milliseconds()}
}

// RefreshModels handles POST /providers/{id}/refresh-models: runs the
// provider-kind-specific discovery adapter and upserts any model_id
// not yet present.
func (h *ProviderHandler) RefreshModels(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	acct, err := h.Store.GetProviderAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	creds, err := store.DecryptCredentials(h.EncryptionKey, acct.Credentials)
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeInternal, "decrypt credentials").WithCause(err), h.Logger)
		return
	}

	kind := provider.Kind(acct.Kind)
	discovered, err := discovery.For(kind).ListModels(r.Context(), provider.Target{Kind: kind, Credentials: creds})
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	existing, err := h.Store.ListModels(r.Context(), &id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.ModelID] = true
	}

	created := 0
	for _, modelID := range discovered {
		if have[modelID] {
			continue
		}
		m := &store.Model{
			ID:                   uuid.New(),
			ProviderAccountID:    id,
			ModelID:              modelID,
			Source:               store.SourceDiscovered,
			EnabledForMonitoring: true,
			EnabledForBenchmark:  true,
		}
		if err := h.Store.CreateModel(r.Context(), m); err != nil {
			h.Logger.Warn("refresh-models: create model failed", zap.String("model_id", modelID), zap.Error(err))
			continue
		}
		created++
	}

	WriteSuccess(w, api.RefreshModelsResponse{Discovered: len(discovered), Created: created, ModelIDs: discovered})
}

// Catalog handles GET /providers/catalog, enumerating supported
// provider kinds for the account-creation form.
func (h *ProviderHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	out := make([]api.ProviderCatalogEntry, len(provider.Catalog))
	for i, s := range provider.Catalog {
		out[i] = api.ProviderCatalogEntry{
			Kind:            string(s.Kind),
			Label:           s.Label,
			RequiresAPIKey:  s.RequiresAPIKey,
			RequiresBaseURL: s.RequiresBaseURL,
			RequiresRegion:  s.RequiresRegion,
			DefaultBaseURL:  s.DefaultBaseURL,
		}
	}
	WriteSuccess(w, out)
}
