package handlers

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/promptpack"
	"github.com/arguslm/arguslm/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MonitoringHandler serves /monitoring/* (§6.3).
type MonitoringHandler struct {
	*Deps
}

// NewMonitoringHandler builds a MonitoringHandler.
func NewMonitoringHandler(d *Deps) *MonitoringHandler { return &MonitoringHandler{Deps: d} }

// GetConfig handles GET /monitoring/config.
func (h *MonitoringHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetOrCreateMonitoringConfig(r.Context())
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, cfg)
}

// UpdateConfig handles PATCH /monitoring/config, invoking the
// scheduler's reconfiguration so a changed interval or enabled flag
// takes effect without a process restart.
func (h *MonitoringHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetOrCreateMonitoringConfig(r.Context())
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	var req api.MonitoringConfigRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}

	interval := cfg.IntervalMinutes
	enabled := cfg.Enabled
	if req.IntervalMinutes != nil {
		interval = *req.IntervalMinutes
	}
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if req.PromptPackID != nil {
		if !promptpack.IsValid(*req.PromptPackID) {
			WriteError(w, apperr.New(apperr.CodeValidation, "unknown prompt_pack_id"), h.Logger)
			return
		}
		cfg.PromptPackID = *req.PromptPackID
		if err := h.Store.UpdateMonitoringConfig(r.Context(), cfg); err != nil {
			WriteError(w, err, h.Logger)
			return
		}
	}

	if err := h.Scheduler.Configure(r.Context(), interval, enabled); err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, err.Error()), h.Logger)
		return
	}

	cfg, err = h.Store.GetOrCreateMonitoringConfig(r.Context())
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, cfg)
}

// Run handles POST /monitoring/run: queues a manual sweep and returns a
// generated run id immediately, rather than blocking on it.
func (h *MonitoringHandler) Run(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New()
	go func() {
		if err := h.Scheduler.RunOnce(context.Background()); err != nil {
			h.Logger.Error("manual monitoring run failed", zap.String("run_id", runID.String()), zap.Error(err))
		}
	}()
	WriteJSON(w, http.StatusAccepted, api.RunMonitoringResponse{RunID: runID.String()})
}

// Uptime handles GET /monitoring/uptime, a paginated, filterable
// history read.
func (h *MonitoringHandler) Uptime(w http.ResponseWriter, r *http.Request) {
	filter, err := parseUptimeFilter(r)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	checks, err := h.Store.ListUptimeChecks(r.Context(), filter)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, checks)
}

func parseUptimeFilter(r *http.Request) (store.UptimeFilter, error) {
	q := r.URL.Query()
	filter := store.UptimeFilter{
		EnabledOnly: q.Get("enabled_only") == "true",
		Limit:       100,
	}

	if raw := q.Get("model_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperr.New(apperr.CodeValidation, "invalid model_id")
		}
		filter.ModelID = &id
	}
	if raw := q.Get("status"); raw != "" {
		filter.Status = store.CheckStatus(raw)
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperr.New(apperr.CodeValidation, "invalid since, expected RFC3339")
		}
		filter.Since = &since
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 1000 {
			return filter, apperr.New(apperr.CodeValidation, "limit must be between 0 and 1000")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, apperr.New(apperr.CodeValidation, "invalid offset")
		}
		filter.Offset = n
	}
	return filter, nil
}

// ExportUptime handles GET /monitoring/uptime/export?format=json|csv.
func (h *MonitoringHandler) ExportUptime(w http.ResponseWriter, r *http.Request) {
	filter, err := parseUptimeFilter(r)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	if filter.Limit == 0 {
		filter.Limit = 1000
	}
	checks, err := h.Store.ListUptimeChecks(r.Context(), filter)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	rows := make([]api.UptimeExportRow, len(checks))
	for i, c := range checks {
		row := api.UptimeExportRow{
			Status:    string(c.Status),
			LatencyMS: c.LatencyMS,
			Error:     c.Error,
			Timestamp: c.CreatedAt,
		}
		if c.Model != nil {
			row.ModelName = c.Model.ModelID
			if acct := c.Model.ProviderAccount; acct != nil {
				row.Provider = string(acct.Kind)
			}
		}
		rows[i] = row
	}

	format := r.URL.Query().Get("format")
	if format == "csv" {
		writeUptimeCSV(w, rows)
		return
	}
	WriteSuccess(w, rows)
}

func writeUptimeCSV(w http.ResponseWriter, rows []api.UptimeExportRow) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="uptime-export.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"model_name", "provider", "status", "latency_ms", "error", "timestamp"})
	for _, row := range rows {
		latency := ""
		if row.LatencyMS != nil {
			latency = strconv.FormatFloat(*row.LatencyMS, 'f', -1, 64)
		}
		cw.Write([]string{
			row.ModelName,
			row.Provider,
			row.Status,
			latency,
			row.Error,
			row.Timestamp.Format(time.RFC3339),
		})
	}
}

// PromptPacks handles GET /monitoring/prompt-packs.
func (h *MonitoringHandler) PromptPacks(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, promptpack.All())
}
