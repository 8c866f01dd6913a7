package flight

import "github.com/flightlab/boostersim/pkg/core"

// ScrubState is a hand-tuned approximation of where the booster is at the
// start of a phase. It exists so that jumping around the timeline looks
// plausible; it is not produced by the physics and will not match a replay.
type ScrubState struct {
	Position core.Vec3
	Velocity core.Vec3
	PitchDeg float64
}

// ScrubFuelStep is the fraction of propellant assumed burned per phase index.
const ScrubFuelStep = 0.15

// scrubTable is indexed by phase. Tables longer than this reuse the last row.
var scrubTable = [...]ScrubState{
	{Position: core.Vec3{Y: GroundOffset}},
	{Position: core.Vec3{Y: 15000}, Velocity: core.Vec3{Y: 1200}},
	{Position: core.Vec3{X: 25000, Y: 80000}, Velocity: core.Vec3{X: 2000, Y: 800}, PitchDeg: 45},
	{Position: core.Vec3{X: 80000, Y: 120000}, Velocity: core.Vec3{X: 2500, Y: 200}, PitchDeg: 45},
	{Position: core.Vec3{X: 150000, Y: 100000}, Velocity: core.Vec3{X: -800, Y: -400}, PitchDeg: 135},
	{Position: core.Vec3{X: 80000, Y: 60000}, Velocity: core.Vec3{X: -600, Y: -1200}, PitchDeg: 180},
	{Position: core.Vec3{X: 30000, Y: 35000}, Velocity: core.Vec3{X: -200, Y: -900}, PitchDeg: 180},
	{Position: core.Vec3{X: 10000, Y: 10000}, Velocity: core.Vec3{X: -50, Y: -350}, PitchDeg: 180},
	{Position: core.Vec3{X: 1000, Y: 2000}, Velocity: core.Vec3{Y: -80}, PitchDeg: 180},
	{Position: core.Vec3{X: 200, Y: GroundOffset}, PitchDeg: 180},
}

// ScrubStateFor returns the approximate state for a phase index.
func ScrubStateFor(index int) ScrubState {
	index = max(0, min(index, len(scrubTable)-1))
	return scrubTable[index]
}

// ScrubFuel is the propellant assumed left at the start of a phase.
func ScrubFuel(propellant float64, index int) float64 {
	return max(0, propellant*(1-ScrubFuelStep*float64(index)))
}

// applyScrub overwrites kinematics, attitude and fuel with the scrub row.
func applyScrub(s *State, v core.VehicleSpec, index int) {
	row := ScrubStateFor(index)
	s.Position = row.Position
	s.Velocity = row.Velocity
	s.Orientation = core.Orientation{Pitch: deg2rad(row.PitchDeg)}
	s.SteeringRate = 0
	s.FuelRemaining = ScrubFuel(v.PropellantMass(), index)
	s.Mass = v.DryMass + s.FuelRemaining
}
