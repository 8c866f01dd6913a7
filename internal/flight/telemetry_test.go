package flight

import (
	"math"
	"testing"

	"github.com/flightlab/boostersim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTelemetry_Initial(t *testing.T) {
	e := NewDefault()
	snap := e.Telemetry()

	assert.Equal(t, 0.0, snap.Time)
	assert.Equal(t, GroundOffset, snap.Altitude)
	assert.Equal(t, 100.0, snap.FuelPercent)
	assert.Equal(t, 0.0, snap.Thrust)
	assert.Equal(t, "Pre-Launch", snap.Phase)
	assert.Equal(t, 0, snap.PhaseIndex)
	assert.False(t, snap.Running)
}

func TestBuildTelemetry_DerivedValues(t *testing.T) {
	e := NewDefault()
	require.True(t, e.JumpToPhase(2).Applied)
	snap := e.Telemetry()
	v := DefaultVehicle()

	speed := math.Hypot(2000, 800)
	assert.InDelta(t, speed, snap.Speed, 1e-9)
	assert.Equal(t, 800.0, snap.VerticalSpeed)
	assert.InDelta(t, speed/G, snap.GForce, 1e-9)
	assert.Equal(t, 25000.0, snap.Downrange)
	assert.InDelta(t, 0.5*AirDensity(80000)*speed*speed, snap.DynamicPressure, 1e-9)
	assert.InDelta(t, v.MaxThrust*0.85, snap.Thrust, 1e-6)
	assert.InDelta(t, 85.0, snap.ThrottlePercent, 1e-9)
	assert.InDelta(t, 45.0, snap.Pitch, 1e-9)
	assert.InDelta(t, 70.0, snap.FuelPercent, 1e-9)
	assert.Equal(t, "Gravity Turn", snap.Phase)
	assert.Equal(t, 63.0, snap.Time)
}

func TestBuildTelemetry_DownrangeIgnoresHeight(t *testing.T) {
	s := State{Position: core.Vec3{X: 3, Y: 1000, Z: 4}, Mass: 1}
	snap := BuildTelemetry(s, DefaultVehicle(), DefaultPhases())
	assert.Equal(t, 5.0, snap.Downrange)
}

func TestBuildTelemetry_IsPure(t *testing.T) {
	e := NewDefault()
	e.JumpToPhase(5)
	before := e.State()
	a := e.Telemetry()
	b := e.Telemetry()
	assert.Equal(t, a, b)
	assert.Equal(t, before, e.State())
}
