// pkg/core/telemetry.go
package core

import "time"

// TelemetrySnapshot is a read-only view derived from the simulation state.
// Units are SI: metres, m/s, kg, N, Pa; angles in degrees.
type TelemetrySnapshot struct {
	Time            float64     `json:"time"`
	Altitude        float64     `json:"altitude"`
	Speed           float64     `json:"speed"`
	VerticalSpeed   float64     `json:"verticalSpeed"`
	Mass            float64     `json:"mass"`
	FuelPercent     float64     `json:"fuelPercent"`
	Thrust          float64     `json:"thrust"`
	ThrottlePercent float64     `json:"throttlePercent"`
	Pitch           float64     `json:"pitch"`
	Roll            float64     `json:"roll"`
	Yaw             float64     `json:"yaw"`
	GForce          float64     `json:"gForce"` // |v|/g, not an acceleration
	Downrange       float64     `json:"downrange"`
	DynamicPressure float64     `json:"dynamicPressure"`
	Phase           string      `json:"phase"`
	PhaseIndex      int         `json:"phaseIndex"`
	Running         bool        `json:"running"`
	Position        Vec3        `json:"position"`
	Orientation     Orientation `json:"orientation"`
}

// TrajectorySample is one recorded position along the flight path.
type TrajectorySample struct {
	Time     float64 `json:"time"`
	Position Vec3    `json:"position"`
}

// PhaseEventCause explains why the active phase changed.
type PhaseEventCause string

const (
	CauseAdvance   PhaseEventCause = "advance"
	CauseJump      PhaseEventCause = "jump"
	CauseReset     PhaseEventCause = "reset"
	CauseTouchdown PhaseEventCause = "touchdown"
)

// PhaseEvent records a change of mission phase (or a terminal touchdown).
type PhaseEvent struct {
	RunID     string          `json:"runId"`
	Time      time.Time       `json:"time"`
	SimTime   float64         `json:"simTime"`
	FromIndex int             `json:"fromIndex"`
	ToIndex   int             `json:"toIndex"`
	Phase     string          `json:"phase"`
	Cause     PhaseEventCause `json:"cause"`
}

// TelemetryRecord is a snapshot captured by the recorder for storage.
type TelemetryRecord struct {
	RunID    string            `json:"runId"`
	Time     time.Time         `json:"time"`
	Frame    uint              `json:"frame"`
	Snapshot TelemetrySnapshot `json:"snapshot"`
}
