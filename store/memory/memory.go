// Package memory provides in-memory billing stores (for testing/dev).
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
)

// =============================================================================
// MEMORY STORE - In-memory InputSource and ResultStore
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	inputs map[key]billing.Input
	runs   map[string]billing.Run
}

type key struct {
	ChargeVersionID string
	FinancialYear   int
}

// Compile-time interface checks
var (
	_ billing.InputSource = (*Memory)(nil)
	_ billing.ResultStore = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{
		inputs: make(map[key]billing.Input),
		runs:   make(map[string]billing.Run),
	}
}

// SaveInput stages an input, replacing any earlier one for the same year.
func (m *Memory) SaveInput(_ context.Context, in billing.Input) error {
	if in.ChargeVersion == nil {
		return billing.ErrChargeVersionNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[key{in.ChargeVersion.ID, in.FinancialYear}] = cloneInput(in)
	return nil
}

// LoadInput returns a copy of the staged input.
func (m *Memory) LoadInput(_ context.Context, chargeVersionID string, financialYear int) (billing.Input, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.inputs[key{chargeVersionID, financialYear}]
	if !ok {
		return billing.Input{}, billing.ErrChargeVersionNotFound
	}
	return cloneInput(in), nil
}

// SaveRun stores a run by id.
func (m *Memory) SaveRun(_ context.Context, run billing.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Lines = slices.Clone(run.Lines)
	m.runs[run.ID] = run
	return nil
}

// GetRun returns a stored run.
func (m *Memory) GetRun(_ context.Context, id string) (billing.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return billing.Run{}, billing.ErrRunNotFound
	}
	run.Lines = slices.Clone(run.Lines)
	return run, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = make(map[key]billing.Input)
	m.runs = make(map[string]billing.Run)
	return nil
}

func cloneInput(in billing.Input) billing.Input {
	cv := *in.ChargeVersion
	in.ChargeVersion = &cv
	in.LicenceHolders = slices.Clone(in.LicenceHolders)
	in.InvoiceAccounts = slices.Clone(in.InvoiceAccounts)
	in.Agreements = slices.Clone(in.Agreements)
	in.ChargeElements = slices.Clone(in.ChargeElements)
	in.Returns = slices.Clone(in.Returns)
	return in
}
