package flight

import "github.com/flightlab/boostersim/pkg/core"

// integrate applies semi-implicit Euler: velocity first, then position from
// the updated velocity.
func integrate(s *State, force core.Vec3, dt float64) {
	s.Velocity = s.Velocity.Add(force.Scale(dt / s.Mass))
	s.Position = s.Position.Add(s.Velocity.Scale(dt))
}
