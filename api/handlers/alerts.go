package handlers

import (
	"net/http"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/store"
	"github.com/google/uuid"
)

// AlertHandler serves the /alerts resource (§6.3, §4.6).
type AlertHandler struct {
	*Deps
}

// NewAlertHandler builds an AlertHandler.
func NewAlertHandler(d *Deps) *AlertHandler { return &AlertHandler{Deps: d} }

func validRuleType(t store.AlertRuleKind) bool {
	switch t {
	case store.RuleAnyModelDown, store.RuleSpecificModelDown,
		store.RuleModelUnavailableEverywhere, store.RulePerformanceDegradation:
		return true
	default:
		return false
	}
}

// CreateRule handles POST /alerts/rules. specific_model_down requires
// target_model_id; model_unavailable_everywhere requires
// target_model_name — the cross-field requirements §6.3 names.
func (h *AlertHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req api.AlertRuleRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	ruleType := store.AlertRuleKind(req.RuleType)
	if !validRuleType(ruleType) {
		WriteError(w, apperr.New(apperr.CodeValidation, "unknown rule_type"), h.Logger)
		return
	}
	if ruleType == store.RuleSpecificModelDown && req.TargetModelID == nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "specific_model_down requires target_model_id"), h.Logger)
		return
	}
	if ruleType == store.RuleModelUnavailableEverywhere && req.TargetModelName == "" {
		WriteError(w, apperr.New(apperr.CodeValidation, "model_unavailable_everywhere requires target_model_name"), h.Logger)
		return
	}

	rule := &store.AlertRule{
		ID:              uuid.New(),
		Name:            req.Name,
		RuleType:        ruleType,
		Enabled:         req.Enabled == nil || *req.Enabled,
		TargetModelID:   req.TargetModelID,
		TargetModelName: req.TargetModelName,
		NotifyEmail:     req.NotifyEmail,
		NotifyWebhook:   req.NotifyWebhook,
	}
	if req.Threshold != nil {
		rule.Threshold = store.JSONMap(req.Threshold)
	}
	if err := h.Store.CreateAlertRule(r.Context(), rule); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteCreated(w, rule)
}

// ListRules handles GET /alerts/rules.
func (h *AlertHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled_only") == "true"
	rules, err := h.Store.ListAlertRules(r.Context(), enabledOnly)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, rules)
}

// GetRule handles GET /alerts/rules/{id}.
func (h *AlertHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	rule, err := h.Store.GetAlertRule(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, rule)
}

// UpdateRule handles PATCH /alerts/rules/{id}.
func (h *AlertHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	rule, err := h.Store.GetAlertRule(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	var req api.AlertRuleRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.RuleType != "" {
		ruleType := store.AlertRuleKind(req.RuleType)
		if !validRuleType(ruleType) {
			WriteError(w, apperr.New(apperr.CodeValidation, "unknown rule_type"), h.Logger)
			return
		}
		rule.RuleType = ruleType
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.TargetModelID != nil {
		rule.TargetModelID = req.TargetModelID
	}
	if req.TargetModelName != "" {
		rule.TargetModelName = req.TargetModelName
	}
	if req.Threshold != nil {
		rule.Threshold = store.JSONMap(req.Threshold)
	}
	rule.NotifyEmail = req.NotifyEmail
	rule.NotifyWebhook = req.NotifyWebhook

	if err := h.Store.UpdateAlertRule(r.Context(), rule); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, rule)
}

// DeleteRule handles DELETE /alerts/rules/{id}.
func (h *AlertHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	if err := h.Store.DeleteAlertRule(r.Context(), id); err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteNoContent(w)
}

// List handles GET /alerts.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	acknowledgedOnly := r.URL.Query().Get("acknowledged") == "true"
	unacknowledgedOnly := r.URL.Query().Get("acknowledged") == "false"

	alerts, err := h.Store.ListAlerts(r.Context(), acknowledgedOnly, unacknowledgedOnly, limit, offset)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, alerts)
}

// UnreadCount handles GET /alerts/unread-count.
func (h *AlertHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.ListAlerts(r.Context(), false, true, 1000, 0)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, api.UnreadCountResponse{Count: len(alerts)})
}

// Recent handles GET /alerts/recent — the 20 most recent alerts
// regardless of acknowledgement state.
func (h *AlertHandler) Recent(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.ListAlerts(r.Context(), false, false, 20, 0)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, alerts)
}

// Acknowledge handles PATCH /alerts/{id}/acknowledge. Idempotent: a
// second call on an already-acknowledged alert still returns success.
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	if err := h.Store.AcknowledgeAlert(r.Context(), id); err != nil {
		// AcknowledgeAlert's conditional UPDATE also returns CodeNotFound
		// when the row was already acknowledged — treated as success here
		// so repeated acknowledges stay idempotent, per §6.3.
		if apperr.CodeOf(err) != apperr.CodeNotFound {
			WriteError(w, err, h.Logger)
			return
		}
	}
	WriteSuccess(w, map[string]bool{"acknowledged": true})
}
