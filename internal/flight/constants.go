// Package flight implements the phase-driven booster flight simulation engine:
// mission phases, forces, fuel, integration, ground contact, attitude and
// telemetry derivation. An Engine is single-threaded; wrap it in Guarded when
// it is shared between goroutines.
package flight

// Physical constants.
const (
	G               = 9.80665 // standard gravity, m/s^2
	SeaLevelDensity = 1.225   // kg/m^3
	ScaleHeight     = 8500.0  // m
)

// Simulation tuning.
const (
	// GroundOffset is half the vehicle length; the base touches the pad when Y < GroundOffset.
	GroundOffset = 40.0
	Restitution  = 0.3

	MaxStep  = 0.1 // s, integration step cap
	MinSpeed = 0.1
	MaxSpeed = 10.0

	SlewRate    = 0.8  // rad/s
	SlewEpsilon = 0.01 // rad
	RollDamping = 0.98

	LandingAlignAltitude = 500.0
	LandingAlignGain     = 0.1

	DragThreshold      = 0.1 // m/s
	TrajectoryCapacity = 1000
)
