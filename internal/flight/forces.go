package flight

import (
	"math"

	"github.com/flightlab/boostersim/pkg/core"
)

// AirDensity is the exponential atmosphere at altitude metres above the pad.
func AirDensity(altitude float64) float64 {
	return SeaLevelDensity * math.Exp(-altitude/ScaleHeight)
}

// Gravity returns the weight force for mass.
func Gravity(mass float64) core.Vec3 {
	return core.Vec3{Y: -mass * G}
}

// Thrust returns the engine force for a throttle setting along the steering
// angle, where 0 is straight up. No fuel means no thrust.
func Thrust(v core.VehicleSpec, throttle, fuel, steering float64) core.Vec3 {
	if throttle <= 0 || fuel <= 0 {
		return core.Vec3{}
	}
	t := v.MaxThrust * throttle
	return core.Vec3{X: t * math.Sin(steering), Y: t * math.Cos(steering)}
}

// Drag returns quadratic drag opposing velocity. Below DragThreshold it is zero.
func Drag(v core.VehicleSpec, velocity core.Vec3, density float64) core.Vec3 {
	speed := velocity.Length()
	if speed <= DragThreshold {
		return core.Vec3{}
	}
	mag := 0.5 * density * speed * speed * v.DragCoefficient * v.ReferenceArea
	return velocity.Scale(-mag / speed)
}

// NetForce sums gravity, thrust and drag for the current state.
func NetForce(s *State, v core.VehicleSpec) core.Vec3 {
	alt := max(0, s.Position.Y-GroundOffset)
	return Gravity(s.Mass).
		Add(Thrust(v, s.Throttle, s.FuelRemaining, s.Orientation.Pitch)).
		Add(Drag(v, s.Velocity, AirDensity(alt)))
}
