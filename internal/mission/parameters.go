package mission

import "github.com/flightlab/boostersim/pkg/core"

// Site is a named geodetic location.
type Site struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Launch and landing sites at Cape Canaveral.
var (
	LaunchSite  = Site{Name: "SLC-40", Latitude: 28.5729, Longitude: -80.6490}
	LandingZone = Site{Name: "Landing Zone 1", Latitude: 28.4858, Longitude: -80.5444}
)

// Constraints are the flight envelope limits reported to consumers.
type Constraints struct {
	MaxGForce          float64 `json:"maxGForce"`
	MaxDynamicPressure float64 `json:"maxDynamicPressure"` // Pa
	MinFuelReserve     float64 `json:"minFuelReserve"`     // fraction
	MaxHeatingRate     float64 `json:"maxHeatingRate"`     // W/cm^2
}

// DefaultConstraints are the RTLS envelope limits.
var DefaultConstraints = Constraints{
	MaxGForce:          6.0,
	MaxDynamicPressure: 50000,
	MinFuelReserve:     0.05,
	MaxHeatingRate:     1000,
}

// Target describes the desired touchdown.
type Target struct {
	LandingSite     Site    `json:"landingSite"`
	LandingVelocity float64 `json:"landingVelocity"` // m/s
	LandingAccuracy float64 `json:"landingAccuracy"` // m
}

// Parameters is the static mission description served to clients.
type Parameters struct {
	LaunchSite    Site                `json:"launchSite"`
	Target        Target              `json:"target"`
	Constraints   Constraints         `json:"constraints"`
	Vehicle       core.VehicleSpec    `json:"vehicle"`
	InitialMass   float64             `json:"initialMass"`
	Phases        []core.MissionPhase `json:"phases"`
	TotalDuration float64             `json:"totalDuration"`
}

// NewParameters describes a mission flown by vehicle through phases.
func NewParameters(vehicle core.VehicleSpec, phases []core.MissionPhase) Parameters {
	var total float64
	for _, p := range phases {
		total += p.Duration
	}
	return Parameters{
		LaunchSite: LaunchSite,
		Target: Target{
			LandingSite:     LandingZone,
			LandingVelocity: 2.0,
			LandingAccuracy: 10,
		},
		Constraints:   DefaultConstraints,
		Vehicle:       vehicle,
		InitialMass:   vehicle.DryMass + vehicle.PropellantMass(),
		Phases:        phases,
		TotalDuration: total,
	}
}
