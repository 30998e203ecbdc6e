/*
service.go - Load, compute, persist

PURPOSE:
  Service is the thin layer between callers (HTTP handlers, the command
  line) and the pure Engine. It loads a staged Input, runs the engine,
  records metrics and stores the flattened Run.

INTERFACES:
  InputSource  staged inputs by charge version id + financial year
  ResultStore  stored runs by run id
  Recorder     metrics sink (optional)

  store/sqlite and store/memory implement both stores.

SEE ALSO:
  - engine.go: the computation
  - api/handlers.go: HTTP surface
*/
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// InputSource loads and stages charge version inputs.
type InputSource interface {
	LoadInput(ctx context.Context, chargeVersionID string, financialYear int) (Input, error)
	SaveInput(ctx context.Context, in Input) error
}

// ResultStore persists billing runs.
type ResultStore interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
}

// Recorder receives run metrics.
type Recorder interface {
	ObserveRun(outcome string, elapsed time.Duration)
	ObserveSubPeriods(n int)
	ObserveElementError(code string)
}

// Run outcomes reported to the Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

type noopRecorder struct{}

func (noopRecorder) ObserveRun(string, time.Duration) {}
func (noopRecorder) ObserveSubPeriods(int)            {}
func (noopRecorder) ObserveElementError(string)       {}

// Service coordinates loading, computing and storing runs.
type Service struct {
	engine   *Engine
	inputs   InputSource
	runs     ResultStore
	recorder Recorder
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a service. recorder and logger may be nil.
func NewService(engine *Engine, inputs InputSource, runs ResultStore, recorder Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:   engine,
		inputs:   inputs,
		runs:     runs,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Stage validates and stores the input for a charge version year,
// replacing any earlier input for the same year.
func (s *Service) Stage(ctx context.Context, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := s.inputs.SaveInput(ctx, in); err != nil {
		return fmt.Errorf("stage charge version %s: %w", in.ChargeVersion.ID, err)
	}
	s.logger.Info("input staged",
		"charge_version_id", in.ChargeVersion.ID,
		"financial_year", in.FinancialYear,
		"charge_elements", len(in.ChargeElements),
		"returns", len(in.Returns),
	)
	return nil
}

// Process computes and stores the two-part tariff run for a staged charge
// version year.
func (s *Service) Process(ctx context.Context, chargeVersionID string, financialYear int) (Run, error) {
	start := s.now()
	logger := s.logger.With("charge_version_id", chargeVersionID, "financial_year", financialYear)

	in, err := s.inputs.LoadInput(ctx, chargeVersionID, financialYear)
	if errors.Is(err, ErrChargeVersionNotFound) {
		logger.Error("charge version not found")
		s.recorder.ObserveRun(OutcomeNotFound, s.now().Sub(start))
		return Run{}, fmt.Errorf("charge version %s year %d: %w", chargeVersionID, financialYear, err)
	}
	if err != nil {
		s.recorder.ObserveRun(OutcomeError, s.now().Sub(start))
		return Run{}, fmt.Errorf("load input: %w", err)
	}

	result, err := s.compute(in, start)
	if err != nil {
		return Run{}, err
	}

	run := NewRun(s.newID(), result, s.now().UTC())
	if err := s.runs.SaveRun(ctx, run); err != nil {
		s.recorder.ObserveRun(OutcomeError, s.now().Sub(start))
		return Run{}, fmt.Errorf("save run: %w", err)
	}

	s.recorder.ObserveRun(OutcomeOK, s.now().Sub(start))
	logger.Info("two-part tariff run saved",
		"run_id", run.ID,
		"lines", len(run.Lines),
		"over_abstracted", run.OverAbstracted(),
	)
	return run, nil
}

// Compute runs the engine on an ad hoc input without storing anything.
func (s *Service) Compute(in Input) (*Result, error) {
	start := s.now()
	result, err := s.compute(in, start)
	if err != nil {
		return nil, err
	}
	s.recorder.ObserveRun(OutcomeOK, s.now().Sub(start))
	return result, nil
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id string) (Run, error) {
	return s.runs.GetRun(ctx, id)
}

func (s *Service) compute(in Input, start time.Time) (*Result, error) {
	result, err := s.engine.Compute(in)
	switch {
	case errors.Is(err, ErrChargeVersionNotFound):
		s.recorder.ObserveRun(OutcomeNotFound, s.now().Sub(start))
		return nil, err
	case IsClientError(err):
		s.recorder.ObserveRun(OutcomeInvalid, s.now().Sub(start))
		return nil, err
	case err != nil:
		s.recorder.ObserveRun(OutcomeError, s.now().Sub(start))
		return nil, err
	}

	s.recorder.ObserveSubPeriods(len(result.SubPeriods))
	for code, n := range result.ElementErrors() {
		for i := 0; i < n; i++ {
			s.recorder.ObserveElementError(string(code))
		}
	}
	return result, nil
}
