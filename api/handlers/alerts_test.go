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

func TestAlertHandler_CreateRule_AnyModelDown(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	body, _ := json.Marshal(api.AlertRuleRequest{Name: "any down", RuleType: string(store.RuleAnyModelDown)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/rules", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateRule(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAlertHandler_CreateRule_UnknownType(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	body, _ := json.Marshal(api.AlertRuleRequest{Name: "bad", RuleType: "not_a_real_type"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/rules", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateRule(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAlertHandler_CreateRule_SpecificModelDown_RequiresTarget(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	body, _ := json.Marshal(api.AlertRuleRequest{Name: "specific", RuleType: string(store.RuleSpecificModelDown)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/rules", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateRule(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAlertHandler_CreateRule_ModelUnavailableEverywhere_RequiresName(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	body, _ := json.Marshal(api.AlertRuleRequest{Name: "everywhere", RuleType: string(store.RuleModelUnavailableEverywhere)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/rules", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateRule(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAlertHandler_ListRules_EnabledOnly(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	disabled := false
	body1, _ := json.Marshal(api.AlertRuleRequest{Name: "on", RuleType: string(store.RuleAnyModelDown)})
	body2, _ := json.Marshal(api.AlertRuleRequest{Name: "off", RuleType: string(store.RuleAnyModelDown), Enabled: &disabled})
	for _, b := range [][]byte{body1, body2} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/rules", bytes.NewReader(b))
		w := httptest.NewRecorder()
		h.CreateRule(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/rules?enabled_only=true", nil)
	w := httptest.NewRecorder()
	h.ListRules(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	rules, _ := resp.Data.([]any)
	assert.Len(t, rules, 1)
}

func TestAlertHandler_DeleteRule(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	rule := &store.AlertRule{Name: "r", RuleType: store.RuleAnyModelDown, Enabled: true}
	require.NoError(t, deps.Store.CreateAlertRule(t.Context(), rule))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/rules/"+rule.ID.String(), nil)
	req.SetPathValue("id", rule.ID.String())
	w := httptest.NewRecorder()
	h.DeleteRule(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAlertHandler_UnreadCount(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	rule := &store.AlertRule{Name: "r", RuleType: store.RuleAnyModelDown, Enabled: true}
	require.NoError(t, deps.Store.CreateAlertRule(t.Context(), rule))
	require.NoError(t, deps.Store.CreateAlert(t.Context(), &store.Alert{RuleID: rule.ID, Message: "down"}))
	require.NoError(t, deps.Store.CreateAlert(t.Context(), &store.Alert{RuleID: rule.ID, Message: "down again"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/unread-count", nil)
	w := httptest.NewRecorder()
	h.UnreadCount(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := json.Marshal(resp.Data)
	var count api.UnreadCountResponse
	require.NoError(t, json.Unmarshal(data, &count))
	assert.Equal(t, 2, count.Count)
}

func TestAlertHandler_Acknowledge_IdempotentOnSecondCall(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	rule := &store.AlertRule{Name: "r", RuleType: store.RuleAnyModelDown, Enabled: true}
	require.NoError(t, deps.Store.CreateAlertRule(t.Context(), rule))
	alert := &store.Alert{RuleID: rule.ID, Message: "down"}
	require.NoError(t, deps.Store.CreateAlert(t.Context(), alert))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/alerts/"+alert.ID.String()+"/acknowledge", nil)
		req.SetPathValue("id", alert.ID.String())
		w := httptest.NewRecorder()
		h.Acknowledge(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "call %d", i+1)
	}
}

func TestAlertHandler_Acknowledge_InvalidID(t *testing.T) {
	deps := newTestDeps(t)
	h := NewAlertHandler(deps)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/alerts/not-a-uuid/acknowledge", nil)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()
	h.Acknowledge(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
