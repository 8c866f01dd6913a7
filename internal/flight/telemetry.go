package flight

import "github.com/flightlab/boostersim/pkg/core"

// BuildTelemetry derives a snapshot from the state. It has no side effects.
// The g-force field is |v|/g, a velocity ratio rather than an acceleration.
func BuildTelemetry(s State, v core.VehicleSpec, phases PhaseTable) core.TelemetrySnapshot {
	speed := s.Velocity.Length()
	var fuelPct float64
	if p := v.PropellantMass(); p > 0 {
		fuelPct = s.FuelRemaining / p * 100
	}
	var name string
	if phases.InRange(s.PhaseIndex) {
		name = phases[s.PhaseIndex].Name
	}
	return core.TelemetrySnapshot{
		Time:            s.SimTime,
		Altitude:        s.Position.Y,
		Speed:           speed,
		VerticalSpeed:   s.Velocity.Y,
		Mass:            s.Mass,
		FuelPercent:     fuelPct,
		Thrust:          v.MaxThrust * s.Throttle,
		ThrottlePercent: s.Throttle * 100,
		Pitch:           rad2deg(s.Orientation.Pitch),
		Roll:            rad2deg(s.Orientation.Roll),
		Yaw:             rad2deg(s.Orientation.Yaw),
		GForce:          s.Velocity.Scale(1 / G).Length(),
		Downrange:       s.Position.Horizontal(),
		DynamicPressure: 0.5 * AirDensity(s.Position.Y) * speed * speed,
		Phase:           name,
		PhaseIndex:      s.PhaseIndex,
		Running:         s.Running,
		Position:        s.Position,
		Orientation:     s.Orientation,
	}
}
