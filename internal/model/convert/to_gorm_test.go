package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flightlab/boostersim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreToFlightRun(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := core.FlightRun{
		RunID:           "8d7c1f1e-0000-4000-8000-000000000001",
		Name:            "Falcon 9 RTLS",
		StartTime:       start,
		CaptureInterval: 0.5,
		Vehicle:         core.VehicleSpec{Name: "Falcon 9", DryMass: 22200, Engines: 9},
		Phases: []core.MissionPhase{
			{Name: "Liftoff", Duration: 3, Throttle: 1},
		},
		RecorderVersion: "1.0.0",
	}

	m := CoreToFlightRun(run)

	assert.Equal(t, run.RunID, m.RunID)
	assert.Equal(t, "Falcon 9", m.VehicleName)
	assert.Equal(t, float32(0.5), m.CaptureInterval)
	assert.Equal(t, core.OutcomeInProgress, m.Outcome)
	assert.False(t, m.EndTime.Valid, "zero end time stored as NULL")

	var phases []core.MissionPhase
	require.NoError(t, json.Unmarshal(m.Phases, &phases))
	assert.Equal(t, run.Phases, phases)

	var vehicle core.VehicleSpec
	require.NoError(t, json.Unmarshal(m.Vehicle, &vehicle))
	assert.Equal(t, 9, vehicle.Engines)
}

func TestCoreToFlightRun_NilPhases(t *testing.T) {
	m := CoreToFlightRun(core.FlightRun{Outcome: core.OutcomeLanded, EndTime: time.Now()})

	assert.Equal(t, "[]", string(m.Phases))
	assert.Equal(t, core.OutcomeLanded, m.Outcome)
	assert.True(t, m.EndTime.Valid)
}

func TestCoreToTelemetrySample(t *testing.T) {
	rec := core.TelemetryRecord{
		RunID: "run",
		Time:  time.Now(),
		Frame: 7,
		Snapshot: core.TelemetrySnapshot{
			Time:       3.5,
			Altitude:   120,
			Speed:      45,
			Phase:      "Ascent",
			PhaseIndex: 1,
			Position:   core.Vec3{X: 1, Y: 160, Z: -2},
		},
	}

	s := CoreToTelemetrySample(rec)

	assert.Equal(t, uint(7), s.CaptureFrame)
	assert.Equal(t, 3.5, s.SimTime)
	assert.Equal(t, 120.0, s.Altitude)
	assert.Equal(t, "Ascent", s.Phase)
	assert.Equal(t, 160.0, s.PositionY)
	assert.Equal(t, -2.0, s.PositionZ)
	assert.Zero(t, s.FlightRunID, "stamped by the writer")
}

func TestCoreToPhaseEvent(t *testing.T) {
	e := core.PhaseEvent{SimTime: 3, FromIndex: 0, ToIndex: 1, Phase: "Ascent", Cause: core.CauseAdvance}

	m := CoreToPhaseEvent(e)

	assert.Equal(t, "advance", m.Cause)
	assert.Equal(t, 1, m.ToIndex)
	assert.Equal(t, "Ascent", m.Phase)
}
