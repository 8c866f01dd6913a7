package v1

import (
	"math"
	"sort"
	"time"

	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/pkg/core"
)

// FlightData contains all the data needed to build an export
type FlightData struct {
	Run         *core.FlightRun
	Telemetry   []core.TelemetryRecord
	PhaseEvents []core.PhaseEvent
	Projector   geo.Projector
}

// Build creates an Export from the flight data
func Build(data *FlightData) Export {
	run := data.Run
	export := Export{
		FormatVersion:   FormatVersion,
		RecorderVersion: run.RecorderVersion,
		RunID:           run.RunID,
		RunName:         run.Name,
		Outcome:         run.Outcome,
		StartTime:       formatTime(run.StartTime),
		EndTime:         formatTime(run.EndTime),
		CaptureInterval: run.CaptureInterval,
		Vehicle:         run.Vehicle,
		Phases:          run.Phases,
		Times:           make([]Time, 0, len(data.Telemetry)),
		Telemetry:       make([][]any, 0, len(data.Telemetry)),
		Events:          make([][]any, 0, len(data.PhaseEvents)),
	}
	if export.Phases == nil {
		export.Phases = []core.MissionPhase{}
	}

	records := make([]core.TelemetryRecord, len(data.Telemetry))
	copy(records, data.Telemetry)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Frame < records[j].Frame })

	samples := make([]core.TrajectorySample, 0, len(records))
	for _, rec := range records {
		s := rec.Snapshot
		export.Times = append(export.Times, Time{
			FrameNum:      int(rec.Frame),
			SimTime:       round(s.Time, 3),
			SystemTimeUTC: formatTime(rec.Time),
		})

		// Format: [frame, time, [x, y, z], altitude, speed, verticalSpeed, mass, fuelPercent,
		//          thrust, throttlePercent, pitch, roll, yaw, gForce, downrange, dynamicPressure, phaseIndex]
		export.Telemetry = append(export.Telemetry, []any{
			rec.Frame,
			round(s.Time, 3),
			[]float64{round(s.Position.X, 2), round(s.Position.Y, 2), round(s.Position.Z, 2)},
			round(s.Altitude, 2),
			round(s.Speed, 2),
			round(s.VerticalSpeed, 2),
			round(s.Mass, 1),
			round(s.FuelPercent, 2),
			round(s.Thrust, 0),
			round(s.ThrottlePercent, 1),
			round(s.Pitch, 2),
			round(s.Roll, 2),
			round(s.Yaw, 2),
			round(s.GForce, 3),
			round(s.Downrange, 2),
			round(s.DynamicPressure, 1),
			s.PhaseIndex,
		})
		samples = append(samples, core.TrajectorySample{Time: s.Time, Position: s.Position})

		export.Summary.MaxAltitude = math.Max(export.Summary.MaxAltitude, s.Altitude)
		export.Summary.MaxSpeed = math.Max(export.Summary.MaxSpeed, s.Speed)
		export.Summary.MaxDynamicPressure = math.Max(export.Summary.MaxDynamicPressure, s.DynamicPressure)
		export.Summary.MaxGForce = math.Max(export.Summary.MaxGForce, s.GForce)
		export.Summary.MaxDownrange = math.Max(export.Summary.MaxDownrange, s.Downrange)
		export.Summary.FinalFuelPercent = s.FuelPercent
	}
	if n := len(records); n > 0 {
		export.EndFrame = int(records[n-1].Frame)
		export.Duration = round(records[n-1].Snapshot.Time, 3)
	}

	// Format: [frameNum, "phase", fromIndex, toIndex, phaseName, cause, simTime]
	for _, evt := range data.PhaseEvents {
		export.Events = append(export.Events, []any{
			frameAt(records, evt.Time),
			"phase",
			evt.FromIndex,
			evt.ToIndex,
			evt.Phase,
			string(evt.Cause),
			round(evt.SimTime, 3),
		})
		if evt.Cause == core.CauseAdvance || evt.Cause == core.CauseJump {
			export.Summary.PhaseChanges++
		}
	}

	export.Track = data.Projector.Track(samples)
	export.TrajectoryWKT = data.Projector.WKT(samples)
	return export
}

// frameAt returns the last capture frame recorded at or before at, 0 when
// none. Wall time is used because jumps move simulation time backwards.
func frameAt(records []core.TelemetryRecord, at time.Time) uint {
	var frame uint
	for _, rec := range records {
		if rec.Time.After(at) {
			break
		}
		frame = rec.Frame
	}
	return frame
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// round keeps exports compact; NaN and Inf become 0 so the JSON stays valid.
func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
