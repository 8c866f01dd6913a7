// Package v1 contains the v1 export format for recorded flights.
// Per-frame data is written as compact positional arrays to keep files small.
package v1

import (
	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/pkg/core"
)

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion   int                 `json:"formatVersion"`
	RecorderVersion string              `json:"recorderVersion"`
	RunID           string              `json:"runId"`
	RunName         string              `json:"runName"`
	Outcome         string              `json:"outcome"`
	StartTime       string              `json:"startTime"`
	EndTime         string              `json:"endTime,omitempty"`
	CaptureInterval float64             `json:"captureInterval"`
	EndFrame        int                 `json:"endFrame"`
	Duration        float64             `json:"duration"`
	Vehicle         core.VehicleSpec    `json:"vehicle"`
	Phases          []core.MissionPhase `json:"phases"`
	Times           []Time              `json:"times"`
	Telemetry       [][]any             `json:"telemetry"`
	Events          [][]any             `json:"events"`
	Track           []geo.TrackPoint    `json:"track"`
	TrajectoryWKT   string              `json:"trajectoryWkt,omitempty"`
	Summary         Summary             `json:"summary"`
}

// Time maps a capture frame to simulation and wall-clock time
type Time struct {
	FrameNum      int     `json:"frameNum"`
	SimTime       float64 `json:"simTime"`
	SystemTimeUTC string  `json:"systemTimeUTC"`
}

// Summary holds flight extremes derived from telemetry
type Summary struct {
	MaxAltitude        float64 `json:"maxAltitude"`
	MaxSpeed           float64 `json:"maxSpeed"`
	MaxDynamicPressure float64 `json:"maxDynamicPressure"`
	MaxGForce          float64 `json:"maxGForce"`
	MaxDownrange       float64 `json:"maxDownrange"`
	FinalFuelPercent   float64 `json:"finalFuelPercent"`
	PhaseChanges       int     `json:"phaseChanges"`
}

// TelemetryColumns names the positions of each telemetry row.
var TelemetryColumns = []string{
	"frame", "time", "position", "altitude", "speed", "verticalSpeed",
	"mass", "fuelPercent", "thrust", "throttlePercent",
	"pitch", "roll", "yaw", "gForce", "downrange", "dynamicPressure", "phaseIndex",
}
