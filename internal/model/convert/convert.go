package convert

import (
	"encoding/json"
	"math"

	"github.com/flightlab/boostersim/internal/model"
	"github.com/flightlab/boostersim/pkg/core"
)

// FlightRunToCore converts a GORM FlightRun to a core.FlightRun.
// Malformed vehicle or phase JSON leaves the zero value.
func FlightRunToCore(m model.FlightRun) core.FlightRun {
	r := core.FlightRun{
		ID:              m.ID,
		RunID:           m.RunID,
		Name:            m.Name,
		StartTime:       m.StartTime,
		CaptureInterval: float64(m.CaptureInterval),
		Outcome:         m.Outcome,
		RecorderVersion: m.RecorderVersion,
	}
	if m.EndTime.Valid {
		r.EndTime = m.EndTime.Time
	}
	if len(m.Vehicle) > 0 {
		_ = json.Unmarshal(m.Vehicle, &r.Vehicle)
	}
	if len(m.Phases) > 0 {
		_ = json.Unmarshal(m.Phases, &r.Phases)
	}
	if r.Vehicle.Name == "" {
		r.Vehicle.Name = m.VehicleName
	}
	return r
}

// TelemetrySampleToCore rebuilds a telemetry record for the run identified by runID.
func TelemetrySampleToCore(m model.TelemetrySample, runID string) core.TelemetryRecord {
	pos := core.Vec3{X: m.PositionX, Y: m.PositionY, Z: m.PositionZ}
	return core.TelemetryRecord{
		RunID: runID,
		Time:  m.Time,
		Frame: m.CaptureFrame,
		Snapshot: core.TelemetrySnapshot{
			Time:            m.SimTime,
			Altitude:        m.Altitude,
			Speed:           m.Speed,
			VerticalSpeed:   m.VerticalSpeed,
			Mass:            m.Mass,
			FuelPercent:     m.FuelPercent,
			Thrust:          m.Thrust,
			ThrottlePercent: m.ThrottlePercent,
			Pitch:           m.Pitch,
			Roll:            m.Roll,
			Yaw:             m.Yaw,
			GForce:          m.GForce,
			Downrange:       m.Downrange,
			DynamicPressure: m.DynamicPressure,
			Phase:           m.Phase,
			PhaseIndex:      m.PhaseIndex,
			Running:         m.Running,
			Position:        pos,
			Orientation:     core.Orientation{Pitch: deg2rad(m.Pitch), Roll: deg2rad(m.Roll), Yaw: deg2rad(m.Yaw)},
		},
	}
}

// PhaseEventToCore converts a GORM PhaseEventRecord to a core.PhaseEvent.
func PhaseEventToCore(m model.PhaseEventRecord, runID string) core.PhaseEvent {
	return core.PhaseEvent{
		RunID:     runID,
		Time:      m.Time,
		SimTime:   m.SimTime,
		FromIndex: m.FromIndex,
		ToIndex:   m.ToIndex,
		Phase:     m.Phase,
		Cause:     core.PhaseEventCause(m.Cause),
	}
}

// Snapshots report degrees; Orientation is radians.
func deg2rad(d float64) float64 { return d * math.Pi / 180 }
