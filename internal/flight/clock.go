package flight

import (
	"math"

	"github.com/flightlab/boostersim/internal/util"
)

// Clock converts wall-clock deltas into simulation steps.
type Clock struct {
	speed float64
}

func NewClock() Clock {
	return Clock{speed: 1}
}

// Speed returns the current multiplier.
func (c Clock) Speed() float64 { return c.speed }

// SetSpeed stores x clamped to [MinSpeed, MaxSpeed]. NaN is rejected.
func (c *Clock) SetSpeed(x float64) Result {
	if math.IsNaN(x) {
		return ignored(ReasonNonFinite)
	}
	clamped := util.Clamp(x, MinSpeed, MaxSpeed)
	c.speed = clamped
	if clamped != x {
		return Result{Applied: true, Reason: ReasonClamped}
	}
	return applied()
}

// Step returns the sim dt for a wall delta: min(wall*speed, MaxStep).
// Negative deltas produce a zero step.
func (c Clock) Step(wall float64) float64 {
	return util.Clamp(wall*c.speed, 0, MaxStep)
}
