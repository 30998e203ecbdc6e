/*
handlers.go - HTTP API handlers for two-part tariff billing

PURPOSE:
  Exposes the billing service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to billing.Service.

ENDPOINTS:
  Charge versions:
    PUT    /api/charge-versions/{id}/years/{year}                  Stage input JSON
    POST   /api/charge-versions/{id}/years/{year}/two-part-tariff  Compute and store a run

  Two-part tariff:
    GET    /api/two-part-tariff/runs/{runID}  Stored run
    POST   /api/two-part-tariff/compute       Compute an input without storing it

  Scenarios:
    GET    /api/scenarios       List demo scenarios
    POST   /api/scenarios/load  Stage a demo scenario
    POST   /api/reset           Clear all staged inputs and runs (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Parse and validate input JSON (factory)
  3. Call billing.Service
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Charge version year or run not found
  - 500: Internal errors

  Returns that are not ready and over-abstraction are not errors: they are
  reported per element in a 2xx response.

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/factory"
)

// maxBodyBytes bounds an input document.
const maxBodyBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears a store. Both store implementations satisfy it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service      *billing.Service
	InputFactory *factory.InputFactory

	// Store is cleared by the reset endpoint; nil disables it.
	Store Resetter

	logger *slog.Logger
}

// NewHandler creates a new handler. store and logger may be nil.
func NewHandler(svc *billing.Service, store Resetter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service:      svc,
		InputFactory: factory.NewInputFactory(),
		Store:        store,
		logger:       logger,
	}
}

// =============================================================================
// CHARGE VERSION HANDLERS
// =============================================================================

// StageInput stores the input JSON for a charge version year.
func (h *Handler) StageInput(w http.ResponseWriter, r *http.Request) {
	chargeVersionID, year, err := chargeVersionYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid path", err)
		return
	}

	in, err := h.readInput(w, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if in.ChargeVersion.ID != chargeVersionID || in.FinancialYear != year {
		writeError(w, http.StatusBadRequest, "Input does not match path",
			fmt.Errorf("body is %s/%d, path is %s/%d", in.ChargeVersion.ID, in.FinancialYear, chargeVersionID, year))
		return
	}

	if err := h.Service.Stage(r.Context(), in); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StagedDTO{
		ChargeVersionID: chargeVersionID,
		FinancialYear:   year,
		ChargeElements:  len(in.ChargeElements),
		Returns:         len(in.Returns),
	})
}

// ProcessTwoPartTariff computes and stores the run for a staged charge
// version year.
func (h *Handler) ProcessTwoPartTariff(w http.ResponseWriter, r *http.Request) {
	chargeVersionID, year, err := chargeVersionYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid path", err)
		return
	}

	run, err := h.Service.Process(r.Context(), chargeVersionID, year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// =============================================================================
// TWO-PART TARIFF HANDLERS
// =============================================================================

// GetRun returns a stored run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// Compute runs the engine on the posted input without storing anything.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInput(w, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.Service.Compute(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(result))
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario stages a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scenario, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", fmt.Errorf("unknown scenario: %s", req.ScenarioID))
		return
	}

	ij, err := scenarioInput(scenario)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build scenario", err)
		return
	}
	in, err := h.InputFactory.FromJSON(ij)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build scenario", err)
		return
	}
	if err := h.Service.Stage(r.Context(), in); err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.Info("scenario loaded", "scenario_id", scenario.ID, "charge_version_id", scenario.ChargeVersionID)
	writeJSON(w, http.StatusOK, scenario)
}

// ResetDatabase clears all staged inputs and runs.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Reset disabled", nil)
		return
	}
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.logger.Warn("database reset")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (billing.Input, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return billing.Input{}, fmt.Errorf("%w: failed to read body: %w", billing.ErrInvalidInput, err)
	}
	return h.InputFactory.ParseInput(body)
}

func chargeVersionYear(r *http.Request) (string, int, error) {
	id := chi.URLParam(r, "id")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return "", 0, fmt.Errorf("financial year %q: %w", chi.URLParam(r, "year"), err)
	}
	return id, year, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps billing errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "Run not found", err)
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Charge version not found", err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
