package handlers

import (
	"net/http"
	"regexp"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/store"
	"github.com/google/uuid"
)

// modelIDPattern is §6.3's validation rule for a hand-entered model_id.
var modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ModelHandler serves the /models resource (§6.3).
type ModelHandler struct {
	*Deps
}

// NewModelHandler builds a ModelHandler.
func NewModelHandler(d *Deps) *ModelHandler { return &ModelHandler{Deps: d} }

// Create handles POST /models.
func (h *ModelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.ModelRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	if !modelIDPattern.MatchString(req.ModelID) {
		WriteError(w, apperr.New(apperr.CodeValidation, "model_id must match ^[A-Za-z0-9_-]+$"), h.Logger)
		return
	}

	m := &store.Model{
		ID:                   uuid.New(),
		ProviderAccountID:    req.ProviderAccountID,
		ModelID:              req.ModelID,
		Source:               store.SourceManual,
		EnabledForMonitoring: req.EnabledForMonitoring == nil || *req.EnabledForMonitoring,
		EnabledForBenchmark:  req.EnabledForBenchmark == nil || *req.EnabledForBenchmark,
	}
	if req.DisplayName != nil {
		m.DisplayName = *req.DisplayName
	}
	if req.Metadata != nil {
		m.Metadata = store.JSONMap(req.Metadata)
	}

	if err := h.Store.CreateModel(r.Context(), m); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteCreated(w, m)
}

// List handles GET /models, optionally filtered by provider_account_id.
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	var providerID *uuid.UUID
	if raw := r.URL.Query().Get("provider_account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, apperr.New(apperr.CodeValidation, "invalid provider_account_id"), h.Logger)
			return
		}
		providerID = &id
	}

	models, err := h.Store.ListModels(r.Context(), providerID)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, models)
}

// Get handles GET /models/{id}.
func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	m, err := h.Store.GetModel(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, m)
}

// Update handles PATCH /models/{id}. Send display_name: "" to clear it;
// omitting the field leaves it unchanged.
func (h *ModelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	m, err := h.Store.GetModel(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	var req api.ModelRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	if req.DisplayName != nil {
		m.DisplayName = *req.DisplayName
	}
	if req.EnabledForMonitoring != nil {
		m.EnabledForMonitoring = *req.EnabledForMonitoring
	}
	if req.EnabledForBenchmark != nil {
		m.EnabledForBenchmark = *req.EnabledForBenchmark
	}
	if req.Metadata != nil {
		m.Metadata = store.JSONMap(req.Metadata)
	}

	if err := h.Store.UpdateModel(r.Context(), m); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, m)
}

// Delete handles DELETE /models/{id}.
func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	if err := h.Store.DeleteModel(r.Context(), id); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteNoContent(w)
}
