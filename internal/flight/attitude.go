package flight

import (
	"math"

	"github.com/flightlab/boostersim/internal/util"
)

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// steer slews the steering angle toward the phase target at SlewRate,
// damps roll, and pulls the vehicle vertical close to the pad.
func steer(s *State, targetDeg float64, landing bool, dt float64) {
	prev := s.Orientation.Pitch
	target := deg2rad(targetDeg)
	diff := target - s.Orientation.Pitch
	if math.Abs(diff) > SlewEpsilon {
		s.Orientation.Pitch += util.Sign(diff) * min(math.Abs(diff), SlewRate*dt)
	} else {
		s.Orientation.Pitch = target
	}
	s.Orientation.Pitch = util.Clamp(s.Orientation.Pitch, -math.Pi, math.Pi)
	s.Orientation.Roll *= RollDamping

	if landing && s.Position.Y < LandingAlignAltitude {
		s.Orientation.Pitch += (math.Pi - s.Orientation.Pitch) * LandingAlignGain * dt
	}

	if dt > 0 {
		s.SteeringRate = (s.Orientation.Pitch - prev) / dt
	}
}
