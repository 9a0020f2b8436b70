// Package alerting implements the §4.6 alert rule evaluator: given a
// batch of uptime check results, it creates new Alert rows for every
// enabled AlertRule whose condition newly matches, deduplicating
// against any already-open (unacknowledged) incident for the same
// rule+model pair.
//
// Transliterated from app/core/alert_evaluator.py: the same three rule
// kinds (any_model_down, specific_model_down,
// model_unavailable_everywhere), the same has-active-incident
// NULL-aware dedup predicate, and the same no-op CheckRecoveries
// placeholder — per the original's comment, ArgusLM never
// auto-acknowledges an alert; that stays a human action even after the
// underlying model recovers.
package alerting

import (
	"context"
	"fmt"
	"strings"

	"github.com/arguslm/arguslm/store"
	"github.com/google/uuid"
)

// Evaluate runs every enabled rule in rules against checks and
// persists any new alert via db. Rules of an unrecognized type are
// skipped, matching the original's silent "unknown rule type"
// fallthrough. Returns every alert actually created.
func Evaluate(ctx context.Context, db store.Store, rules []store.AlertRule, checks []store.UptimeCheck) ([]store.Alert, error) {
	var created []store.Alert
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		alerts, err := evaluateRule(ctx, db, rule, checks)
		if err != nil {
			return created, fmt.Errorf("evaluate rule %s: %w", rule.ID, err)
		}
		for i := range alerts {
			if err := db.CreateAlert(ctx, &alerts[i]); err != nil {
				return created, fmt.Errorf("persist alert for rule %s: %w", rule.ID, err)
			}
			created = append(created, alerts[i])
		}
	}
	return created, nil
}

func evaluateRule(ctx context.Context, db store.Store, rule store.AlertRule, checks []store.UptimeCheck) ([]store.Alert, error) {
	switch rule.RuleType {
	case store.RuleAnyModelDown:
		return evaluateAnyModelDown(ctx, db, rule, checks)
	case store.RuleSpecificModelDown:
		return evaluateSpecificModelDown(ctx, db, rule, checks)
	case store.RuleModelUnavailableEverywhere:
		return evaluateModelUnavailableEverywhere(ctx, db, rule, checks)
	default:
		return nil, nil
	}
}

func evaluateAnyModelDown(ctx context.Context, db store.Store, rule store.AlertRule, checks []store.UptimeCheck) ([]store.Alert, error) {
	var alerts []store.Alert
	for _, check := range checks {
		if check.Status != store.StatusDown {
			continue
		}
		modelID := check.ModelID
		active, err := db.HasActiveIncident(ctx, rule.ID, &modelID)
		if err != nil {
			return nil, err
		}
		if active {
			continue
		}
		alerts = append(alerts, store.Alert{
			RuleID:  rule.ID,
			ModelID: &modelID,
			Message: fmt.Sprintf("Model is down: %s", orDefault(check.Error, "Health check failed")),
		})
	}
	return alerts, nil
}

func evaluateSpecificModelDown(ctx context.Context, db store.Store, rule store.AlertRule, checks []store.UptimeCheck) ([]store.Alert, error) {
	if rule.TargetModelID == nil {
		return nil, nil
	}
	var target *store.UptimeCheck
	for i := range checks {
		if checks[i].ModelID == *rule.TargetModelID {
			target = &checks[i]
			break
		}
	}
	if target == nil || target.Status != store.StatusDown {
		return nil, nil
	}

	active, err := db.HasActiveIncident(ctx, rule.ID, rule.TargetModelID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}

	modelID := target.ModelID
	return []store.Alert{{
		RuleID:  rule.ID,
		ModelID: &modelID,
		Message: fmt.Sprintf("Monitored model is down: %s", orDefault(target.Error, "Health check failed")),
	}}, nil
}

// evaluateModelUnavailableEverywhere resolves every Model row whose
// ModelID case-insensitively contains rule.TargetModelName (the Go
// equivalent of the original's `ilike(f"%{name}%")`), then checks
// whether every uptime check for those models is down.
func evaluateModelUnavailableEverywhere(ctx context.Context, db store.Store, rule store.AlertRule, checks []store.UptimeCheck) ([]store.Alert, error) {
	if strings.TrimSpace(rule.TargetModelName) == "" {
		return nil, nil
	}

	models, err := db.ListModels(ctx, nil)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(rule.TargetModelName)
	matching := make(map[uuid.UUID]bool)
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.ModelID), needle) {
			matching[m.ID] = true
		}
	}
	if len(matching) == 0 {
		return nil, nil
	}

	var relevant []store.UptimeCheck
	for _, c := range checks {
		if matching[c.ModelID] {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		return nil, nil
	}

	allDown := true
	for _, c := range relevant {
		if c.Status != store.StatusDown {
			allDown = false
			break
		}
	}
	if !allDown {
		return nil, nil
	}

	active, err := db.HasActiveIncident(ctx, rule.ID, nil)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}

	return []store.Alert{{
		RuleID:  rule.ID,
		ModelID: nil,
		Message: fmt.Sprintf("Model '%s' is unavailable across all %d provider(s)", rule.TargetModelName, len(relevant)),
	}}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// CheckRecoveries is an intentional no-op: per §4.6/§7's
// never-auto-acknowledge rule, a model coming back up never closes its
// own incident — that stays a human action. Kept as a named function,
// rather than omitted, so the decision is documented in code; the
// monitoring scheduler's sweep does not call it.
func CheckRecoveries(_ context.Context, _ []store.UptimeCheck) error {
	return nil
}
