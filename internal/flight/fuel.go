package flight

import "github.com/flightlab/boostersim/pkg/core"

// MassFlow is the propellant consumption rate in kg/s at a throttle setting.
func MassFlow(v core.VehicleSpec, throttle float64) float64 {
	return v.MaxThrust * throttle / (v.Isp * G)
}

// burnFuel depletes propellant for one step and keeps mass in sync with it.
func burnFuel(s *State, v core.VehicleSpec, dt float64) {
	if s.Throttle <= 0 || s.FuelRemaining <= 0 {
		return
	}
	s.FuelRemaining = max(0, s.FuelRemaining-MassFlow(v, s.Throttle)*dt)
	s.Mass = v.DryMass + s.FuelRemaining
}
