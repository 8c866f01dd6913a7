package flight

import (
	"math"
	"testing"

	"github.com/flightlab/boostersim/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestAirDensity(t *testing.T) {
	assert.Equal(t, SeaLevelDensity, AirDensity(0))
	assert.InDelta(t, SeaLevelDensity/math.E, AirDensity(ScaleHeight), 1e-12)
	assert.Less(t, AirDensity(80000), 1e-4)
}

func TestThrust(t *testing.T) {
	v := DefaultVehicle()
	tests := []struct {
		name     string
		throttle float64
		fuel     float64
		steering float64
		expected core.Vec3
	}{
		{"straight up", 1, 1000, 0, core.Vec3{Y: v.MaxThrust}},
		{"horizontal", 0.5, 1000, math.Pi / 2, core.Vec3{X: v.MaxThrust * 0.5, Y: v.MaxThrust * 0.5 * math.Cos(math.Pi/2)}},
		{"zero throttle", 0, 1000, 0, core.Vec3{}},
		{"no fuel", 1, 0, 0, core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Thrust(v, tt.throttle, tt.fuel, tt.steering)
			assert.InDelta(t, tt.expected.X, got.X, 1e-6)
			assert.InDelta(t, tt.expected.Y, got.Y, 1e-6)
			assert.Equal(t, 0.0, got.Z)
		})
	}
}

func TestDrag(t *testing.T) {
	v := DefaultVehicle()

	t.Run("below threshold", func(t *testing.T) {
		assert.Equal(t, core.Vec3{}, Drag(v, core.Vec3{X: 0.05, Y: 0.05}, SeaLevelDensity))
	})

	t.Run("opposes velocity", func(t *testing.T) {
		vel := core.Vec3{X: 30, Y: -40}
		d := Drag(v, vel, SeaLevelDensity)
		want := 0.5 * SeaLevelDensity * 2500 * v.DragCoefficient * v.ReferenceArea
		assert.InDelta(t, want, d.Length(), 1e-6)
		assert.Less(t, d.Dot(vel), 0.0)
		assert.InDelta(t, -0.6, d.Normalize().X, 1e-12)
		assert.InDelta(t, 0.8, d.Normalize().Y, 1e-12)
	})
}

func TestNetForce_UsesAltitudeAboveGroundOffset(t *testing.T) {
	v := DefaultVehicle()
	s := initialState(v, DefaultPhases())
	s.Velocity = core.Vec3{Y: 100}
	s.Position.Y = 10 // below the offset clamps to sea-level density

	f := NetForce(&s, v)

	drag := 0.5 * SeaLevelDensity * 100 * 100 * v.DragCoefficient * v.ReferenceArea
	assert.InDelta(t, -s.Mass*G-drag, f.Y, 1e-6)
}

func TestBurnFuel(t *testing.T) {
	v := DefaultVehicle()
	s := initialState(v, DefaultPhases())
	s.Throttle = 1

	burnFuel(&s, v, 1)

	flow := v.MaxThrust / (v.Isp * G)
	assert.InDelta(t, v.PropellantMass()-flow, s.FuelRemaining, 1e-6)
	assert.Equal(t, v.DryMass+s.FuelRemaining, s.Mass)

	s.Throttle = 0
	before := s
	burnFuel(&s, v, 1)
	assert.Equal(t, before, s)
}

func TestIntegrate_SemiImplicit(t *testing.T) {
	s := State{Mass: 2, Position: core.Vec3{Y: 100}}
	integrate(&s, core.Vec3{Y: 4}, 0.5)

	assert.Equal(t, core.Vec3{Y: 1}, s.Velocity)
	assert.Equal(t, core.Vec3{Y: 100.5}, s.Position, "position uses the updated velocity")
}

func TestResolveGroundContact(t *testing.T) {
	t.Run("above ground", func(t *testing.T) {
		s := State{Position: core.Vec3{Y: GroundOffset}, Velocity: core.Vec3{Y: -1}, Running: true}
		assert.Equal(t, ContactNone, resolveGroundContact(&s, 7))
		assert.Equal(t, -1.0, s.Velocity.Y)
	})

	t.Run("bounce", func(t *testing.T) {
		s := State{Position: core.Vec3{X: 5, Y: 30}, Velocity: core.Vec3{X: 2, Y: -10}, PhaseIndex: 6, Running: true}
		assert.Equal(t, ContactBounce, resolveGroundContact(&s, 7))
		assert.Equal(t, GroundOffset, s.Position.Y)
		assert.Equal(t, 5.0, s.Position.X)
		assert.InDelta(t, 3.0, s.Velocity.Y, 1e-12)
		assert.Equal(t, 2.0, s.Velocity.X)
		assert.True(t, s.Running)
	})

	t.Run("touchdown", func(t *testing.T) {
		s := State{Position: core.Vec3{X: 5, Y: 30, Z: 1}, Velocity: core.Vec3{X: 2, Y: -10}, PhaseIndex: 7, Running: true}
		assert.Equal(t, ContactTouchdown, resolveGroundContact(&s, 7))
		assert.Equal(t, core.Vec3{Y: GroundOffset}, s.Position)
		assert.Equal(t, core.Vec3{}, s.Velocity)
		assert.Equal(t, math.Pi, s.Orientation.Pitch)
		assert.False(t, s.Running)
	})
}

func TestSteer(t *testing.T) {
	t.Run("slews at max rate", func(t *testing.T) {
		s := State{Position: core.Vec3{Y: 1000}}
		steer(&s, 45, false, 0.1)
		assert.InDelta(t, SlewRate*0.1, s.Orientation.Pitch, 1e-12)
		assert.InDelta(t, SlewRate, s.SteeringRate, 1e-9)
	})

	t.Run("snaps within epsilon", func(t *testing.T) {
		target := deg2rad(45)
		s := State{Position: core.Vec3{Y: 1000}, Orientation: core.Orientation{Pitch: target - 0.005}}
		steer(&s, 45, false, 0.1)
		assert.Equal(t, target, s.Orientation.Pitch)
	})

	t.Run("does not overshoot", func(t *testing.T) {
		target := deg2rad(10)
		s := State{Position: core.Vec3{Y: 1000}, Orientation: core.Orientation{Pitch: target - 0.05}}
		steer(&s, 10, false, 0.1)
		assert.InDelta(t, target, s.Orientation.Pitch, 1e-12)
	})

	t.Run("damps roll and leaves yaw", func(t *testing.T) {
		s := State{Position: core.Vec3{Y: 1000}, Orientation: core.Orientation{Roll: 1, Yaw: 0.5}}
		steer(&s, 0, false, 0.1)
		assert.Equal(t, RollDamping, s.Orientation.Roll)
		assert.Equal(t, 0.5, s.Orientation.Yaw)
	})

	t.Run("landing alignment below 500m", func(t *testing.T) {
		s := State{Position: core.Vec3{Y: 100}, Orientation: core.Orientation{Pitch: 2}}
		steer(&s, rad2deg(2), true, 0.1)
		assert.InDelta(t, 2+(math.Pi-2)*LandingAlignGain*0.1, s.Orientation.Pitch, 1e-12)
	})

	t.Run("no alignment above 500m", func(t *testing.T) {
		s := State{Position: core.Vec3{Y: 600}, Orientation: core.Orientation{Pitch: 2}}
		steer(&s, rad2deg(2), true, 0.1)
		assert.InDelta(t, 2, s.Orientation.Pitch, 1e-12)
	})
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, 0.016, c.Step(0.016))
	assert.Equal(t, MaxStep, c.Step(5))
	assert.Equal(t, 0.0, c.Step(-1))

	c.SetSpeed(4)
	assert.InDelta(t, 0.064, c.Step(0.016), 1e-12)
	assert.Equal(t, MaxStep, c.Step(0.05))
}
