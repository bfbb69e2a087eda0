package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mbanner77/allocengine/pkg/application/dto"
	"github.com/mbanner77/allocengine/pkg/application/services/orchestration"
	"github.com/mbanner77/allocengine/pkg/application/services/recipient"
	"github.com/mbanner77/allocengine/pkg/application/services/variant"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
	"github.com/mbanner77/allocengine/pkg/infrastructure/events"
	"github.com/mbanner77/allocengine/pkg/infrastructure/logging"
	"github.com/mbanner77/allocengine/pkg/infrastructure/metrics"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	orchestrator *orchestration.Orchestrator
	variants     *variant.Service
	variantRepo  repositories.VariantRepository
	runRepo      repositories.RunRepository
	journal      events.EventStore
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewHandlers creates new handlers
func NewHandlers(
	orchestrator *orchestration.Orchestrator,
	variants *variant.Service,
	variantRepo repositories.VariantRepository,
	runRepo repositories.RunRepository,
	journal events.EventStore,
	m *metrics.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handlers{
		orchestrator: orchestrator,
		variants:     variants,
		variantRepo:  variantRepo,
		runRepo:      runRepo,
		journal:      journal,
		metrics:      m,
		logger:       logger,
	}
}

// Response helpers
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: false, Error: message})
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Variant handlers

type createVariantRequest struct {
	Name          string                    `json:"name"`
	Season        string                    `json:"season"`
	DeliveryStart time.Time                 `json:"deliveryStart"`
	DeliveryEnd   time.Time                 `json:"deliveryEnd"`
	Policy        entities.PolicyParameters `json:"policy"`
}

func (h *Handlers) CreateVariant(w http.ResponseWriter, r *http.Request) {
	var req createVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	v, err := h.variants.Create(r.Context(), req.Name, entities.Season(req.Season), req.Policy, req.DeliveryStart, req.DeliveryEnd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handlers) ListVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.variantRepo.ListVariants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"variants": variants, "count": len(variants)})
}

func (h *Handlers) GetVariant(w http.ResponseWriter, r *http.Request) {
	v, err := h.variantRepo.GetVariant(r.Context(), entities.VariantID(chi.URLParam(r, "variantID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) UpdateVariantPolicy(w http.ResponseWriter, r *http.Request) {
	var policy entities.PolicyParameters
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := h.variants.UpdatePolicy(r.Context(), entities.VariantID(chi.URLParam(r, "variantID")), policy)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type simulateRequest struct {
	ManualStores []entities.StoreID `json:"manualStores,omitempty"`
}

// SimulateVariant executes one allocation run for a Draft variant, stores
// the run and advances the variant to Simulated
func (h *Handlers) SimulateVariant(w http.ResponseWriter, r *http.Request) {
	v, err := h.variantRepo.GetVariant(r.Context(), entities.VariantID(chi.URLParam(r, "variantID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req simulateRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	input := recipient.Input{Season: v.Season}
	if len(req.ManualStores) > 0 {
		input.ManualSelection = make(map[entities.StoreID]bool, len(req.ManualStores))
		for _, id := range req.ManualStores {
			input.ManualSelection[id] = true
		}
	}

	started := time.Now()
	result, err := h.orchestrator.Execute(r.Context(), v, input)
	if err != nil {
		h.observeRun(entities.RunAborted, nil, started)
		var infeasible *entities.InfeasibleError
		if errors.As(err, &infeasible) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.observeRun(entities.RunCompleted, result.Run, started)

	if err := h.runRepo.SaveRun(r.Context(), result.Run); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v.Status == entities.Draft {
		if _, err := h.variants.MarkSimulated(r.Context(), v.ID, result.Run.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// ValidateVariant re-derives the validation checklist from the variant's
// latest simulation run and attempts the Simulated -> Validated transition
func (h *Handlers) ValidateVariant(w http.ResponseWriter, r *http.Request) {
	v, err := h.variantRepo.GetVariant(r.Context(), entities.VariantID(chi.URLParam(r, "variantID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if v.RunID == "" {
		writeError(w, http.StatusConflict, "variant has no simulation run")
		return
	}
	run, err := h.runRepo.GetRun(r.Context(), v.RunID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	checklist := variant.BuildChecklist(v, resultFromRun(run))
	updated, err := h.variants.Validate(r.Context(), v.ID, checklist)
	if err != nil {
		var failure *entities.ValidationFailure
		if errors.As(err, &failure) {
			writeError(w, http.StatusUnprocessableEntity, failure.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) ReleaseVariant(w http.ResponseWriter, r *http.Request) {
	v, err := h.variants.Release(r.Context(), entities.VariantID(chi.URLParam(r, "variantID")))
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) TransferVariant(w http.ResponseWriter, r *http.Request) {
	id := entities.VariantID(chi.URLParam(r, "variantID"))
	v, err := h.variantRepo.GetVariant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	updated, err := h.variants.Transfer(r.Context(), id, v.RunID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Run handlers

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runRepo.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Line detail stays behind the per-run endpoints.
	type runSummary struct {
		ID         entities.RunID     `json:"id"`
		VariantID  entities.VariantID `json:"variantId"`
		Status     string             `json:"status"`
		FinishedAt time.Time          `json:"finishedAt"`
		Lines      int                `json:"lines"`
		KPIs       entities.RunKPIs   `json:"kpis"`
	}
	summaries := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, runSummary{
			ID:         run.ID,
			VariantID:  run.VariantID,
			Status:     run.Status.String(),
			FinishedAt: run.FinishedAt,
			Lines:      len(run.Lines),
			KPIs:       run.KPIs,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": summaries, "count": len(summaries)})
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runRepo.GetRun(r.Context(), entities.RunID(chi.URLParam(r, "runID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handlers) GetRunLines(w http.ResponseWriter, r *http.Request) {
	run, err := h.runRepo.GetRun(r.Context(), entities.RunID(chi.URLParam(r, "runID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lines": run.Lines, "count": len(run.Lines)})
}

func (h *Handlers) GetRunKPIs(w http.ResponseWriter, r *http.Request) {
	run, err := h.runRepo.GetRun(r.Context(), entities.RunID(chi.URLParam(r, "runID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run.KPIs)
}

func (h *Handlers) GetRunExceptions(w http.ResponseWriter, r *http.Request) {
	run, err := h.runRepo.GetRun(r.Context(), entities.RunID(chi.URLParam(r, "runID")))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exceptions": run.Exceptions, "count": len(run.Exceptions)})
}

// GetRunJournal returns the audit trail of one run
func (h *Handlers) GetRunJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, "journal not enabled")
		return
	}
	runID := chi.URLParam(r, "runID")
	journalEvents, err := h.journal.ReadEvents(runID, 1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type journalEntry struct {
		Type      string      `json:"type"`
		Version   int         `json:"version"`
		Timestamp time.Time   `json:"timestamp"`
		Data      interface{} `json:"data"`
	}
	entries := make([]journalEntry, 0, len(journalEvents))
	for _, event := range journalEvents {
		entries = append(entries, journalEntry{
			Type:      event.Type(),
			Version:   event.Version(),
			Timestamp: event.Timestamp(),
			Data:      event.Data(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": entries, "count": len(entries)})
}

func (h *Handlers) observeRun(status entities.RunStatus, run *entities.AllocationRun, started time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RunsTotal.WithLabelValues(status.String()).Inc()
	h.metrics.RunDuration.Observe(time.Since(started).Seconds())
	if run != nil {
		h.metrics.RunLines.Observe(float64(len(run.Lines)))
		for _, ex := range run.Exceptions {
			h.metrics.RunExceptions.WithLabelValues(ex.Kind.String()).Inc()
		}
	}
}

// resultFromRun rebuilds the result view validation needs from a stored run
func resultFromRun(run *entities.AllocationRun) *dto.RunResult {
	seen := make(map[entities.StoreID]bool)
	result := &dto.RunResult{Run: run}
	for _, line := range run.Lines {
		if !seen[line.StoreID] {
			seen[line.StoreID] = true
			result.EligibleStores = append(result.EligibleStores, line.StoreID)
		}
	}
	return result
}
