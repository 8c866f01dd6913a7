package flight

import "github.com/flightlab/boostersim/pkg/core"

// State is the mutable simulation state owned by an Engine.
type State struct {
	SimTime        float64
	Position       core.Vec3
	Velocity       core.Vec3
	Orientation    core.Orientation
	SteeringRate   float64 // rad/s, observed over the last tick
	Mass           float64
	FuelRemaining  float64
	Throttle       float64
	PhaseIndex     int
	PhaseStartTime float64
	Running        bool
	Landed         bool
	Speed          float64 // simulation speed multiplier
}

// initialState is the deterministic pre-launch state: on the pad, fully fuelled, paused.
func initialState(v core.VehicleSpec, phases PhaseTable) State {
	fuel := v.PropellantMass()
	return State{
		Position:      core.Vec3{Y: GroundOffset},
		Mass:          v.DryMass + fuel,
		FuelRemaining: fuel,
		Throttle:      phases[0].Throttle,
	}
}
