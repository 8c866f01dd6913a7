// pkg/core/mission.go
package core

import "time"

// MissionPhase is one scripted segment of the flight.
type MissionPhase struct {
	Name              string  `json:"name" mapstructure:"name"`
	Duration          float64 `json:"duration" mapstructure:"duration"` // seconds
	Throttle          float64 `json:"throttle" mapstructure:"throttle"` // 0..1
	TargetSteeringDeg float64 `json:"targetSteeringDeg" mapstructure:"targetSteeringDeg"`
}

// VehicleSpec describes the booster's mass and propulsion properties.
type VehicleSpec struct {
	Name            string  `json:"name" mapstructure:"name"`
	DryMass         float64 `json:"dryMass" mapstructure:"dryMass"`                 // kg
	FuelMass        float64 `json:"fuelMass" mapstructure:"fuelMass"`               // kg, RP-1
	OxidizerMass    float64 `json:"oxidizerMass" mapstructure:"oxidizerMass"`       // kg, LOX
	MaxThrust       float64 `json:"maxThrust" mapstructure:"maxThrust"`             // N
	Isp             float64 `json:"isp" mapstructure:"isp"`                         // s
	DragCoefficient float64 `json:"dragCoefficient" mapstructure:"dragCoefficient"` // dimensionless
	ReferenceArea   float64 `json:"referenceArea" mapstructure:"referenceArea"`     // m^2
	Engines         int     `json:"engines" mapstructure:"engines"`
}

// PropellantMass is the full propellant load (fuel plus oxidizer).
func (v VehicleSpec) PropellantMass() float64 {
	return v.FuelMass + v.OxidizerMass
}

// FlightRun identifies one recorded flight from reset to touchdown (or shutdown).
type FlightRun struct {
	ID              uint           `json:"id"`
	RunID           string         `json:"runId"`
	Name            string         `json:"name"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	CaptureInterval float64        `json:"captureInterval"` // sim seconds between telemetry samples
	Vehicle         VehicleSpec    `json:"vehicle"`
	Phases          []MissionPhase `json:"phases"`
	Outcome         string         `json:"outcome"`
	RecorderVersion string         `json:"recorderVersion"`
}

// Flight outcomes.
const (
	OutcomeInProgress = "in_progress"
	OutcomeLanded     = "landed"
	OutcomeAborted    = "aborted"
)

// UploadMetadata contains metadata sent alongside an exported recording.
type UploadMetadata struct {
	RunID       string
	RunName     string
	VehicleName string
	Duration    float64
	Outcome     string
}
