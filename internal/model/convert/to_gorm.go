// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"github.com/flightlab/boostersim/internal/model"
	"github.com/flightlab/boostersim/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a JSON column, falling back to the column default.
func toJSON(v any, fallback string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// CoreToFlightRun converts a core.FlightRun to a GORM model.FlightRun.
// A zero EndTime is stored as NULL.
func CoreToFlightRun(r core.FlightRun) model.FlightRun {
	out := model.FlightRun{
		RunID:           r.RunID,
		Name:            r.Name,
		StartTime:       r.StartTime,
		EndTime:         sql.NullTime{Time: r.EndTime, Valid: !r.EndTime.IsZero()},
		CaptureInterval: float32(r.CaptureInterval),
		VehicleName:     r.Vehicle.Name,
		Vehicle:         toJSON(r.Vehicle, "{}"),
		Phases:          toJSON(r.Phases, "[]"),
		Outcome:         r.Outcome,
		RecorderVersion: r.RecorderVersion,
	}
	out.ID = r.ID
	if out.Outcome == "" {
		out.Outcome = core.OutcomeInProgress
	}
	return out
}

// CoreToTelemetrySample flattens a telemetry record. FlightRunID is stamped
// by the writer.
func CoreToTelemetrySample(r core.TelemetryRecord) model.TelemetrySample {
	s := r.Snapshot
	return model.TelemetrySample{
		Time:            r.Time,
		CaptureFrame:    r.Frame,
		SimTime:         s.Time,
		Altitude:        s.Altitude,
		Speed:           s.Speed,
		VerticalSpeed:   s.VerticalSpeed,
		Mass:            s.Mass,
		FuelPercent:     s.FuelPercent,
		Thrust:          s.Thrust,
		ThrottlePercent: s.ThrottlePercent,
		Pitch:           s.Pitch,
		Roll:            s.Roll,
		Yaw:             s.Yaw,
		GForce:          s.GForce,
		Downrange:       s.Downrange,
		DynamicPressure: s.DynamicPressure,
		Phase:           s.Phase,
		PhaseIndex:      s.PhaseIndex,
		Running:         s.Running,
		PositionX:       s.Position.X,
		PositionY:       s.Position.Y,
		PositionZ:       s.Position.Z,
	}
}

// CoreToPhaseEvent converts a core.PhaseEvent. FlightRunID is stamped by the writer.
func CoreToPhaseEvent(e core.PhaseEvent) model.PhaseEventRecord {
	return model.PhaseEventRecord{
		Time:      e.Time,
		SimTime:   e.SimTime,
		FromIndex: e.FromIndex,
		ToIndex:   e.ToIndex,
		Phase:     e.Phase,
		Cause:     string(e.Cause),
	}
}
