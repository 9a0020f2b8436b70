package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/arguslm/arguslm/api"
	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/benchmark"
	"github.com/arguslm/arguslm/bus"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/store"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BenchmarkHandler serves the /benchmarks resource (§6.3, §4.5, §4.7).
type BenchmarkHandler struct {
	*Deps
}

// NewBenchmarkHandler builds a BenchmarkHandler.
func NewBenchmarkHandler(d *Deps) *BenchmarkHandler { return &BenchmarkHandler{Deps: d} }

// Create handles POST /benchmarks (202 Accepted): validates the model
// ids exist, creates a pending run row, spawns the background task,
// and returns the run id immediately.
func (h *BenchmarkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.BenchmarkRunRequest
	if DecodeJSONBody(w, r, &req, h.Logger) != nil {
		return
	}
	if len(req.ModelIDs) == 0 {
		WriteError(w, apperr.New(apperr.CodeValidation, "model_ids must not be empty"), h.Logger)
		return
	}

	targets := make([]benchmark.ModelTarget, 0, len(req.ModelIDs))
	uuids := make(store.UUIDList, 0, len(req.ModelIDs))
	for _, modelRowID := range req.ModelIDs {
		m, err := h.Store.GetModel(r.Context(), modelRowID)
		if err != nil {
			WriteError(w, err, h.Logger)
			return
		}
		if m.ProviderAccount == nil {
			WriteError(w, apperr.New(apperr.CodeInternal, "model missing provider account"), h.Logger)
			return
		}
		creds, err := store.DecryptCredentials(h.EncryptionKey, m.ProviderAccount.Credentials)
		if err != nil {
			WriteError(w, apperr.New(apperr.CodeInternal, "decrypt credentials").WithCause(err), h.Logger)
			return
		}
		targets = append(targets, benchmark.ModelTarget{
			ModelRowID:  m.ID,
			ProviderKey: m.ProviderAccountID.String(),
			Target: provider.Target{
				Kind:        provider.Kind(m.ProviderAccount.Kind),
				ModelID:     m.ModelID,
				Credentials: creds,
			},
		})
		uuids = append(uuids, modelRowID)
	}

	run := &store.BenchmarkRun{
		ID:           uuid.New(),
		Name:         req.Name,
		ModelIDs:     uuids,
		PromptPackID: req.PromptPackID,
		Status:       store.RunPending,
		TriggeredBy:  store.TriggeredByUser,
	}
	if run.Name == "" {
		run.Name = "benchmark " + run.ID.String()[:8]
	}
	if run.PromptPackID == "" {
		run.PromptPackID = "synthetic_medium"
	}
	if err := h.Store.CreateBenchmarkRun(r.Context(), run); err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	config := benchmark.Config{
		Models:     targets,
		PromptPack: run.PromptPackID,
		MaxTokens:  req.MaxTokens,
		NumRuns:    req.NumRuns,
		WarmupRuns: req.WarmupRuns,
	}
	go h.execute(run.ID, config)

	WriteJSON(w, http.StatusAccepted, api.BenchmarkRunResponse{RunID: run.ID.String()})
}

func (h *BenchmarkHandler) execute(runID uuid.UUID, config benchmark.Config) {
	ctx := context.Background()
	now := time.Now().UTC()

	run, err := h.Store.GetBenchmarkRun(ctx, runID)
	if err != nil {
		h.Logger.Error("benchmark: reload run failed", zap.String("run_id", runID.String()), zap.Error(err))
		return
	}
	run.Status = store.RunRunning
	run.StartedAt = &now
	if err := h.Store.UpdateBenchmarkRun(ctx, run); err != nil {
		h.Logger.Error("benchmark: persist running status failed", zap.Error(err))
	}

	invokers := make(map[provider.Kind]provider.Invoker)
	for _, m := range config.Models {
		if _, ok := invokers[m.Target.Kind]; ok {
			continue
		}
		if inv, ok := h.Registry.Resolve(m.Target.Kind); ok {
			invokers[m.Target.Kind] = inv
		}
	}

	results := benchmark.Run(ctx, runID, config, invokers, h.Throttle)

	// A task-level error is materialised as an error BenchmarkResult, not
	// a run failure: the run reaches completed once every non-warmup
	// task has produced a result, success or error. RunFailed is
	// reserved for orchestrator-level exceptions (store unreachable),
	// never set here.
	status := store.RunCompleted
	for _, res := range results {
		row := &store.BenchmarkResult{
			ID:               uuid.New(),
			RunID:            runID,
			ModelID:          res.ModelRowID,
			TTFTMS:           float64(res.TTFT.Milliseconds()),
			TPS:              res.TPS,
			TPSExcludingTTFT: res.TPSExcludingTTFT,
			TotalLatencyMS:   float64(res.TotalLatency.Milliseconds()),
			InputTokens:      res.InputTokens,
			OutputTokens:     res.OutputTokens,
			EstimatedCostUSD: res.EstimatedCostUSD,
			Error:            res.Error,
		}
		if err := h.Store.CreateBenchmarkResult(ctx, row); err != nil {
			h.Logger.Error("benchmark: persist result failed", zap.Error(err))
		}

		msg := bus.Message{Type: bus.MessageResult, ModelID: res.ModelRowID.String(), TTFTMS: row.TTFTMS, TPS: row.TPS}
		if res.Error != "" {
			msg.Status = "failed"
			msg.Error = res.Error
		} else {
			msg.Status = "ok"
		}
		h.Bus.Publish(runID, msg)
	}

	completedAt := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &completedAt
	if err := h.Store.UpdateBenchmarkRun(ctx, run); err != nil {
		h.Logger.Error("benchmark: persist completion failed", zap.Error(err))
	}

	h.Bus.Publish(runID, bus.Message{Type: bus.MessageComplete, Status: string(status)})
}

// List handles GET /benchmarks.
func (h *BenchmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	runs, err := h.Store.ListBenchmarkRuns(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, runs)
}

func parsePagination(r *http.Request) (int, int) {
	limit, offset := 50, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// Get handles GET /benchmarks/{id}.
func (h *BenchmarkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	run, err := h.Store.GetBenchmarkRun(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	WriteSuccess(w, run)
}

// Results handles GET /benchmarks/{id}/results, including the computed
// percentile statistics over the run's results.
func (h *BenchmarkHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	run, err := h.Store.GetBenchmarkRun(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}
	results, err := h.Store.ListBenchmarkResults(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	dtos := make([]api.BenchmarkResultDTO, len(results))
	ttft := make([]float64, 0, len(results))
	tps := make([]float64, 0, len(results))
	for i, res := range results {
		dtos[i] = api.BenchmarkResultDTO{
			ModelID:          res.ModelID,
			TTFTMS:           res.TTFTMS,
			TPS:              res.TPS,
			TPSExcludingTTFT: res.TPSExcludingTTFT,
			TotalLatencyMS:   res.TotalLatencyMS,
			InputTokens:      res.InputTokens,
			OutputTokens:     res.OutputTokens,
			EstimatedCostUSD: res.EstimatedCostUSD,
			Error:            res.Error,
		}
		if res.Error == "" {
			ttft = append(ttft, res.TTFTMS)
			tps = append(tps, res.TPS)
		}
	}

	ttftStats := benchmark.CalculateStatistics(ttft)
	tpsStats := benchmark.CalculateStatistics(tps)

	WriteSuccess(w, api.BenchmarkDetailResponse{
		RunID:   id,
		Status:  string(run.Status),
		Results: dtos,
		Statistics: api.BenchmarkStatistics{
			TTFTMS: api.Percentiles{P50: ttftStats.P50, P95: ttftStats.P95, P99: ttftStats.P99},
			TPS:    api.Percentiles{P50: tpsStats.P50, P95: tpsStats.P95, P99: tpsStats.P99},
		},
	})
}

// Export handles GET /benchmarks/{id}/export?format=json|csv.
func (h *BenchmarkHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}
	results, err := h.Store.ListBenchmarkResults(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.Logger)
		return
	}

	rows := make([]api.BenchmarkResultExportRow, len(results))
	for i, res := range results {
		row := api.BenchmarkResultExportRow{
			TTFTMS:           res.TTFTMS,
			TPS:              res.TPS,
			TPSExcludingTTFT: res.TPSExcludingTTFT,
			TotalLatencyMS:   res.TotalLatencyMS,
			InputTokens:      res.InputTokens,
			OutputTokens:     res.OutputTokens,
			Error:            res.Error,
			Timestamp:        res.CreatedAt,
		}
		if res.Model != nil {
			row.ModelName = res.Model.ModelID
			if acct := res.Model.ProviderAccount; acct != nil {
				row.Provider = string(acct.Kind)
			}
		}
		rows[i] = row
	}

	if r.URL.Query().Get("format") == "csv" {
		writeBenchmarkCSV(w, rows)
		return
	}
	WriteSuccess(w, rows)
}

func writeBenchmarkCSV(w http.ResponseWriter, rows []api.BenchmarkResultExportRow) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="benchmark-export.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{
		"model_name", "provider", "ttft_ms", "tps", "tps_excluding_ttft",
		"total_latency_ms", "input_tokens", "output_tokens", "error", "timestamp",
	})
	for _, row := range rows {
		cw.Write([]string{
			row.ModelName,
			row.Provider,
			strconv.FormatFloat(row.TTFTMS, 'f', -1, 64),
			strconv.FormatFloat(row.TPS, 'f', -1, 64),
			strconv.FormatFloat(row.TPSExcludingTTFT, 'f', -1, 64),
			strconv.FormatFloat(row.TotalLatencyMS, 'f', -1, 64),
			strconv.Itoa(row.InputTokens),
			strconv.Itoa(row.OutputTokens),
			row.Error,
			row.Timestamp.Format(time.RFC3339),
		})
	}
}

// Stream handles GET /benchmarks/{id}/stream, a WebSocket subscription
// to the run's Live Progress Bus. The server honors client ping frames
// with an automatic pong via the websocket library's default handling.
func (h *BenchmarkHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, apperr.New(apperr.CodeValidation, "invalid id"), h.Logger)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.Logger.Warn("benchmark stream: accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sub := h.Bus.Subscribe(id)
	defer h.Bus.Unsubscribe(sub)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "run complete")
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := conn.Write(r.Context(), websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
