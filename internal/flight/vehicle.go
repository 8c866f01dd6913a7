package flight

import (
	"fmt"

	"github.com/flightlab/boostersim/internal/util"
	"github.com/flightlab/boostersim/pkg/core"
)

// DefaultVehicle returns the Falcon 9 first-stage figures.
func DefaultVehicle() core.VehicleSpec {
	return core.VehicleSpec{
		Name:            "Falcon 9 Block 5 first stage",
		DryMass:         25400,
		FuelMass:        136078,
		OxidizerMass:    317515,
		MaxThrust:       7607000,
		Isp:             311,
		DragCoefficient: 0.35,
		ReferenceArea:   10.52,
		Engines:         9,
	}
}

// ValidateVehicle rejects specs that would make the physics undefined.
func ValidateVehicle(v core.VehicleSpec) error {
	switch {
	case !util.IsFinite(v.DryMass, v.FuelMass, v.OxidizerMass, v.MaxThrust, v.Isp, v.DragCoefficient, v.ReferenceArea):
		return fmt.Errorf("%w: non-finite value", ErrInvalidVehicle)
	case v.DryMass <= 0:
		return fmt.Errorf("%w: dry mass must be positive, got %v", ErrInvalidVehicle, v.DryMass)
	case v.FuelMass < 0 || v.OxidizerMass < 0:
		return fmt.Errorf("%w: propellant mass must not be negative", ErrInvalidVehicle)
	case v.MaxThrust < 0:
		return fmt.Errorf("%w: max thrust must not be negative", ErrInvalidVehicle)
	case v.Isp <= 0:
		return fmt.Errorf("%w: isp must be positive, got %v", ErrInvalidVehicle, v.Isp)
	case v.DragCoefficient < 0 || v.ReferenceArea < 0:
		return fmt.Errorf("%w: drag terms must not be negative", ErrInvalidVehicle)
	}
	return nil
}
