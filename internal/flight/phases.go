package flight

import (
	"fmt"

	"github.com/flightlab/boostersim/internal/util"
	"github.com/flightlab/boostersim/pkg/core"
)

// PhaseTable is the ordered mission script. Index 0 is initial, the last
// index is terminal and never auto-advances.
type PhaseTable []core.MissionPhase

// DefaultPhases returns the return-to-launch-site profile.
func DefaultPhases() PhaseTable {
	return PhaseTable{
		{Name: "Pre-Launch", Duration: 3, Throttle: 0, TargetSteeringDeg: 0},
		{Name: "Launch & Ascent", Duration: 60, Throttle: 1.0, TargetSteeringDeg: 0},
		{Name: "Gravity Turn", Duration: 90, Throttle: 0.85, TargetSteeringDeg: 45},
		{Name: "Stage Separation", Duration: 3, Throttle: 0, TargetSteeringDeg: 45},
		{Name: "Boost-back Burn", Duration: 25, Throttle: 0.7, TargetSteeringDeg: 135},
		{Name: "Coast Phase", Duration: 120, Throttle: 0, TargetSteeringDeg: 180},
		{Name: "Re-entry Burn", Duration: 15, Throttle: 0.5, TargetSteeringDeg: 180},
		{Name: "Aerodynamic Descent", Duration: 40, Throttle: 0, TargetSteeringDeg: 180},
		{Name: "Landing Burn", Duration: 20, Throttle: 0.85, TargetSteeringDeg: 180},
		{Name: "Touchdown", Duration: 0, Throttle: 0, TargetSteeringDeg: 180},
	}
}

// Validate checks that the table can drive the state machine.
func (t PhaseTable) Validate() error {
	if len(t) == 0 {
		return ErrEmptyPhaseTable
	}
	for i, p := range t {
		if !util.IsFinite(p.Duration, p.Throttle, p.TargetSteeringDeg) {
			return fmt.Errorf("%w: phase %d (%s) has a non-finite value", ErrInvalidPhase, i, p.Name)
		}
		if p.Duration < 0 {
			return fmt.Errorf("%w: phase %d (%s) has negative duration", ErrInvalidPhase, i, p.Name)
		}
		if p.Throttle < 0 || p.Throttle > 1 {
			return fmt.Errorf("%w: phase %d (%s) throttle %v outside [0,1]", ErrInvalidPhase, i, p.Name, p.Throttle)
		}
	}
	return nil
}

// InRange reports whether index addresses a phase.
func (t PhaseTable) InRange(index int) bool {
	return index >= 0 && index < len(t)
}

// StartTime is the cumulative duration of all phases strictly before index.
func (t PhaseTable) StartTime(index int) float64 {
	var total float64
	for i := 0; i < index && i < len(t); i++ {
		total += t[i].Duration
	}
	return total
}

// TotalDuration is the scripted mission length.
func (t PhaseTable) TotalDuration() float64 {
	return t.StartTime(len(t))
}

// LandingThreshold is the first index of the landing phases (the last three).
func (t PhaseTable) LandingThreshold() int {
	return max(0, len(t)-3)
}

// advancePhase moves to the next phase when the active one has run its
// duration. At most one transition happens per call, so a tick that spans
// several short phases only steps over the first of them.
func advancePhase(s *State, t PhaseTable, simTime float64) bool {
	last := len(t) - 1
	if s.PhaseIndex >= last {
		return false
	}
	if simTime-s.PhaseStartTime < t[s.PhaseIndex].Duration {
		return false
	}
	s.PhaseIndex++
	s.PhaseStartTime = simTime
	return true
}
