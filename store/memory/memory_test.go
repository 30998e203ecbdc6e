package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/chargeperiod"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/store/memory"
)

func TestMemory_InputRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	in := billing.Input{
		ChargeVersion: &chargeperiod.ChargeVersion{ID: "cv-1", Period: generic.FinancialYear(2019)},
		FinancialYear: 2019,
	}

	require.NoError(t, m.SaveInput(ctx, in))

	got, err := m.LoadInput(ctx, "cv-1", 2019)
	require.NoError(t, err)
	assert.Equal(t, "cv-1", got.ChargeVersion.ID)

	// the stored copy is independent of the caller's
	got.ChargeVersion.ID = "changed"
	again, err := m.LoadInput(ctx, "cv-1", 2019)
	require.NoError(t, err)
	assert.Equal(t, "cv-1", again.ChargeVersion.ID)

	_, err = m.LoadInput(ctx, "cv-1", 2020)
	assert.ErrorIs(t, err, billing.ErrChargeVersionNotFound)
}

func TestMemory_Runs(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	_, err := m.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, billing.ErrRunNotFound)

	run := billing.Run{ID: "run-1", ChargeVersionID: "cv-1", FinancialYear: 2019, CreatedAt: time.Now()}
	require.NoError(t, m.SaveRun(ctx, run))

	got, err := m.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ChargeVersionID, got.ChargeVersionID)

	require.NoError(t, m.Reset(ctx))
	_, err = m.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, billing.ErrRunNotFound)
}
