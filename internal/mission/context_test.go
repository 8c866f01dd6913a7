package mission

import (
	"sync"
	"testing"
	"time"

	"github.com/flightlab/boostersim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Lifecycle(t *testing.T) {
	ctx := NewContext()

	_, ok := ctx.GetRun()
	assert.False(t, ok)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx.SetRun(core.FlightRun{RunID: "abc", Name: "RTLS", StartTime: start, Outcome: core.OutcomeInProgress})

	run, ok := ctx.GetRun()
	require.True(t, ok)
	assert.Equal(t, "abc", run.RunID)

	end := start.Add(376 * time.Second)
	done, ok := ctx.EndRun(core.OutcomeLanded, end)
	require.True(t, ok)
	assert.Equal(t, core.OutcomeLanded, done.Outcome)
	assert.Equal(t, end, done.EndTime)

	_, ok = ctx.GetRun()
	assert.False(t, ok)
	_, ok = ctx.EndRun(core.OutcomeAborted, end)
	assert.False(t, ok, "ending twice is a no-op")
}

func TestContext_SetStoredID(t *testing.T) {
	ctx := NewContext()
	assert.False(t, ctx.SetStoredID("abc", 3), "no active run")

	ctx.SetRun(core.FlightRun{RunID: "abc"})
	assert.False(t, ctx.SetStoredID("other", 3))
	assert.True(t, ctx.SetStoredID("abc", 3))

	run, _ := ctx.GetRun()
	assert.Equal(t, uint(3), run.ID)
}

func TestContext_GetRunReturnsCopy(t *testing.T) {
	ctx := NewContext()
	ctx.SetRun(core.FlightRun{Name: "original"})

	run, _ := ctx.GetRun()
	run.Name = "changed"

	again, _ := ctx.GetRun()
	assert.Equal(t, "original", again.Name)
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx.SetRun(core.FlightRun{ID: uint(i)})
			ctx.GetRun()
		}(i)
	}
	wg.Wait()
	_, ok := ctx.GetRun()
	assert.True(t, ok)
}

func TestNewParameters(t *testing.T) {
	v := core.VehicleSpec{DryMass: 25400, FuelMass: 136078, OxidizerMass: 317515}
	phases := []core.MissionPhase{{Name: "A", Duration: 3}, {Name: "B", Duration: 60}}

	p := NewParameters(v, phases)

	assert.Equal(t, 478993.0, p.InitialMass)
	assert.Equal(t, 63.0, p.TotalDuration)
	assert.Equal(t, 28.5729, p.LaunchSite.Latitude)
	assert.Equal(t, "Landing Zone 1", p.Target.LandingSite.Name)
	assert.Equal(t, 50000.0, p.Constraints.MaxDynamicPressure)
	assert.Equal(t, 0.05, p.Constraints.MinFuelReserve)
}
