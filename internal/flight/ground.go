package flight

import (
	"math"

	"github.com/flightlab/boostersim/pkg/core"
)

// Contact is the outcome of a ground check.
type Contact int

const (
	ContactNone Contact = iota
	ContactBounce
	ContactTouchdown
)

// resolveGroundContact keeps the vehicle above the pad. In the landing phases
// contact is a touchdown and ends the run; earlier it is a lossy bounce.
func resolveGroundContact(s *State, landingThreshold int) Contact {
	if s.Position.Y >= GroundOffset {
		return ContactNone
	}
	if s.PhaseIndex >= landingThreshold {
		s.Velocity = core.Vec3{}
		s.Position = core.Vec3{Y: GroundOffset}
		s.Orientation.Pitch = math.Pi
		s.SteeringRate = 0
		s.Running = false
		s.Landed = true
		return ContactTouchdown
	}
	s.Position.Y = GroundOffset
	s.Velocity.Y = math.Abs(s.Velocity.Y) * Restitution
	return ContactBounce
}
