package flight

import (
	"math"
	"sync"
	"testing"

	"github.com/flightlab/boostersim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mutate edits engine state directly to set up edge cases.
func (e *Engine) mutate(fn func(*State)) { fn(&e.state) }

func runningEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewDefault()
	require.True(t, e.Start().Applied)
	return e
}

func TestNewDefault_InitialState(t *testing.T) {
	e := NewDefault()
	s := e.State()
	v := DefaultVehicle()

	assert.Equal(t, 0.0, s.SimTime)
	assert.Equal(t, 0, s.PhaseIndex)
	assert.Equal(t, core.Vec3{Y: GroundOffset}, s.Position)
	assert.Equal(t, core.Vec3{}, s.Velocity)
	assert.Equal(t, v.PropellantMass(), s.FuelRemaining)
	assert.Equal(t, v.DryMass+v.PropellantMass(), s.Mass)
	assert.Equal(t, 1.0, s.Speed)
	assert.False(t, s.Running)
	assert.Empty(t, e.Trajectory())
	assert.Len(t, e.Phases(), 10)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		vehicle func(*core.VehicleSpec)
		phases  PhaseTable
		wantErr error
	}{
		{"empty table", nil, PhaseTable{}, ErrEmptyPhaseTable},
		{"negative duration", nil, PhaseTable{{Name: "x", Duration: -1}}, ErrInvalidPhase},
		{"throttle above one", nil, PhaseTable{{Name: "x", Throttle: 1.5}}, ErrInvalidPhase},
		{"nan target", nil, PhaseTable{{Name: "x", TargetSteeringDeg: math.NaN()}}, ErrInvalidPhase},
		{"zero dry mass", func(v *core.VehicleSpec) { v.DryMass = 0 }, DefaultPhases(), ErrInvalidVehicle},
		{"zero isp", func(v *core.VehicleSpec) { v.Isp = 0 }, DefaultPhases(), ErrInvalidVehicle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultVehicle()
			if tt.vehicle != nil {
				tt.vehicle(&v)
			}
			_, err := New(v, tt.phases)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdate_PausedIsNoop(t *testing.T) {
	e := NewDefault()
	before := e.State()

	r := e.Update(0.016)

	assert.False(t, r.Applied)
	assert.Equal(t, ReasonNotRunning, r.Reason)
	assert.ErrorIs(t, r.Err(), ErrNotRunning)
	assert.Equal(t, before, e.State())
	assert.Empty(t, e.Trajectory())
}

func TestUpdate_NonFiniteDeltaIsNoop(t *testing.T) {
	e := runningEngine(t)
	before := e.State()

	r := e.Update(math.NaN())

	assert.Equal(t, ReasonNonFinite, r.Reason)
	assert.Equal(t, before, e.State())
}

func TestUpdate_StepIsCapped(t *testing.T) {
	e := runningEngine(t)
	e.SetSimulationSpeed(10)

	e.Update(1)

	assert.InDelta(t, MaxStep, e.State().SimTime, 1e-12)
}

func TestUpdate_FuelMassInvariant(t *testing.T) {
	e := runningEngine(t)
	v := DefaultVehicle()

	for i := 0; i < 5000 && e.State().Running; i++ {
		e.Update(0.1)
		s := e.State()
		require.GreaterOrEqual(t, s.FuelRemaining, 0.0, "tick %d", i)
		require.Equal(t, v.DryMass+s.FuelRemaining, s.Mass, "tick %d", i)
		require.GreaterOrEqual(t, s.PhaseIndex, 0)
		require.Less(t, s.PhaseIndex, len(e.Phases()))
		require.LessOrEqual(t, s.PhaseStartTime, s.SimTime)
		require.Equal(t, e.Phases()[s.PhaseIndex].Throttle, s.Throttle)
	}
}

func TestUpdate_FuelExhaustionClampsToZero(t *testing.T) {
	v := DefaultVehicle()
	v.FuelMass = 100
	v.OxidizerMass = 0
	e, err := New(v, PhaseTable{
		{Name: "Burn", Duration: 100, Throttle: 1},
		{Name: "End", Duration: 0, Throttle: 0},
	})
	require.NoError(t, err)
	e.Start()

	e.Update(0.1)

	s := e.State()
	assert.Equal(t, 0.0, s.FuelRemaining)
	assert.Equal(t, v.DryMass, s.Mass)
	assert.Equal(t, 1.0, s.Throttle)
	assert.Equal(t, core.Vec3{}, Thrust(v, s.Throttle, s.FuelRemaining, 0))
}

func TestSetSimulationSpeed(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
		reason   Reason
	}{
		{"above max", 50, 10, ReasonClamped},
		{"zero", 0, 0.1, ReasonClamped},
		{"negative", -3, 0.1, ReasonClamped},
		{"in range", 2.5, 2.5, ReasonNone},
		{"positive infinity", math.Inf(1), 10, ReasonClamped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewDefault()
			r := e.SetSimulationSpeed(tt.input)
			assert.True(t, r.Applied)
			assert.Equal(t, tt.reason, r.Reason)
			assert.NoError(t, r.Err())
			assert.Equal(t, tt.expected, e.State().Speed)
		})
	}

	t.Run("nan is ignored", func(t *testing.T) {
		e := NewDefault()
		e.SetSimulationSpeed(3)
		r := e.SetSimulationSpeed(math.NaN())
		assert.False(t, r.Applied)
		assert.ErrorIs(t, r.Err(), ErrNonFinite)
		assert.Equal(t, 3.0, e.State().Speed)
	})
}

func TestJumpToPhase_SetsCumulativeTime(t *testing.T) {
	phases := DefaultPhases()
	for i := range phases {
		e := NewDefault()
		r := e.JumpToPhase(i)
		require.True(t, r.Applied)

		var want float64
		for j := 0; j < i; j++ {
			want += phases[j].Duration
		}
		s := e.State()
		assert.Equal(t, want, s.SimTime, "phase %d", i)
		assert.Equal(t, want, s.PhaseStartTime, "phase %d", i)
		assert.Equal(t, i, s.PhaseIndex)
		assert.Equal(t, phases[i].Throttle, s.Throttle)
		assert.Equal(t, DefaultVehicle().DryMass+s.FuelRemaining, s.Mass)
	}
}

func TestJumpToPhase_OutOfRangeIsNoop(t *testing.T) {
	for _, idx := range []int{-1, 10, 99} {
		e := runningEngine(t)
		e.Update(0.1)
		before := e.State()
		traj := e.Trajectory()

		r := e.JumpToPhase(idx)

		assert.False(t, r.Applied)
		assert.Equal(t, ReasonPhaseOutOfRange, r.Reason)
		assert.ErrorIs(t, r.Err(), ErrPhaseOutOfRange)
		assert.Equal(t, before, e.State())
		assert.Equal(t, traj, e.Trajectory())
	}
}

func TestJumpToPhase_AppliesScrubState(t *testing.T) {
	e := NewDefault()
	e.JumpToPhase(4)
	s := e.State()

	assert.Equal(t, core.Vec3{X: 150000, Y: 100000}, s.Position)
	assert.Equal(t, core.Vec3{X: -800, Y: -400}, s.Velocity)
	assert.InDelta(t, 3*math.Pi/4, s.Orientation.Pitch, 1e-12)
	assert.InDelta(t, DefaultVehicle().PropellantMass()*0.4, s.FuelRemaining, 1e-6)
	assert.False(t, s.Running, "jump does not change the running flag")
}

func TestTouchdown(t *testing.T) {
	e := NewDefault()
	e.JumpToPhase(9)
	e.Start()

	r := e.Update(0.1)
	require.True(t, r.Applied)

	s := e.State()
	assert.Equal(t, core.Vec3{}, s.Velocity)
	assert.Equal(t, core.Vec3{Y: GroundOffset}, s.Position)
	assert.Equal(t, math.Pi, s.Orientation.Pitch)
	assert.False(t, s.Running)
	assert.True(t, s.Landed)

	after := e.State()
	r = e.Update(0.1)
	assert.False(t, r.Applied)
	assert.Equal(t, after, e.State())

	r = e.Start()
	assert.Equal(t, ReasonLanded, r.Reason)
	assert.ErrorIs(t, r.Err(), ErrLanded)
	assert.False(t, e.State().Running)
}

func TestTouchdown_AtLandingThreshold(t *testing.T) {
	e := NewDefault()
	require.Equal(t, 7, e.Phases().LandingThreshold())
	e.JumpToPhase(7)
	e.mutate(func(s *State) {
		s.Position = core.Vec3{X: 12, Y: GroundOffset + 0.01, Z: 3}
		s.Velocity = core.Vec3{X: 1, Y: -5}
	})
	e.Start()

	e.Update(0.1)

	s := e.State()
	assert.False(t, s.Running)
	assert.Equal(t, core.Vec3{}, s.Velocity)
	assert.Equal(t, 0.0, s.Position.X)
	assert.Equal(t, 0.0, s.Position.Z)
}

func TestBounceBeforeLandingPhases(t *testing.T) {
	e := runningEngine(t)

	e.Update(0.1)

	s := e.State()
	preContactVY := -G * 0.1
	assert.Equal(t, GroundOffset, s.Position.Y)
	assert.InDelta(t, -preContactVY*Restitution, s.Velocity.Y, 1e-9)
	assert.Greater(t, s.Velocity.Y, 0.0)
	assert.True(t, s.Running)
	assert.False(t, s.Landed)
}

func TestTrajectoryEvictsOldest(t *testing.T) {
	e := runningEngine(t)
	var times []float64
	for i := 0; i < TrajectoryCapacity+5; i++ {
		e.Update(0.05)
		times = append(times, e.State().SimTime)
	}

	traj := e.Trajectory()
	require.Len(t, traj, TrajectoryCapacity)
	assert.Equal(t, times[5], traj[0].Time)
	assert.Equal(t, times[len(times)-1], traj[len(traj)-1].Time)
	for _, s := range traj {
		assert.NotEqual(t, times[0], s.Time)
	}
}

func TestPhaseTransitionScenario(t *testing.T) {
	e := runningEngine(t)
	const step = 0.0625 // exact in binary so 48 steps land on 3.0

	for i := 1; i <= 60; i++ {
		e.Update(step)
		s := e.State()
		switch {
		case i < 48:
			require.Equal(t, 0, s.PhaseIndex, "tick %d", i)
			require.Equal(t, 0.0, s.Throttle, "tick %d", i)
		case i == 48:
			require.Equal(t, 3.0, s.SimTime)
			require.Equal(t, 1, s.PhaseIndex)
			require.Equal(t, 1.0, s.Throttle)
			require.Equal(t, 3.0, s.PhaseStartTime)
		default:
			require.Equal(t, 1, s.PhaseIndex)
		}
	}
}

func TestAdvance_OnePhasePerTick(t *testing.T) {
	e, err := New(DefaultVehicle(), PhaseTable{
		{Name: "A", Duration: 0.01},
		{Name: "B", Duration: 0.01},
		{Name: "C", Duration: 0.01},
		{Name: "D"},
	})
	require.NoError(t, err)
	e.Start()

	e.Update(0.1)
	assert.Equal(t, 1, e.State().PhaseIndex)
	e.Update(0.1)
	assert.Equal(t, 2, e.State().PhaseIndex)
}

func TestLastPhaseNeverAdvances(t *testing.T) {
	e := NewDefault()
	e.JumpToPhase(9)
	e.mutate(func(s *State) { s.Position.Y = 1e6 })
	e.Start()
	for i := 0; i < 50; i++ {
		e.Update(0.1)
	}
	assert.Equal(t, 9, e.State().PhaseIndex)
}

func TestReset(t *testing.T) {
	e := runningEngine(t)
	e.SetSimulationSpeed(4)
	for i := 0; i < 500; i++ {
		e.Update(0.1)
	}
	e.JumpToPhase(6)

	r := e.Reset()

	require.True(t, r.Applied)
	s := e.State()
	assert.Equal(t, 0.0, s.SimTime)
	assert.Equal(t, 0, s.PhaseIndex)
	assert.Equal(t, DefaultVehicle().PropellantMass(), s.FuelRemaining)
	assert.Empty(t, e.Trajectory())
	assert.False(t, s.Running)
	assert.Equal(t, 4.0, s.Speed, "speed multiplier survives reset")
}

func TestObserverEvents(t *testing.T) {
	e := runningEngine(t)
	var events []Event
	e.Observe(func(ev Event) { events = append(events, ev) })

	for i := 0; i < 31; i++ {
		e.Update(0.1)
	}
	e.JumpToPhase(9)
	e.Update(0.1)
	e.Reset()

	causes := make([]core.PhaseEventCause, 0, len(events))
	for _, ev := range events {
		causes = append(causes, ev.Cause)
	}
	assert.Equal(t, []core.PhaseEventCause{core.CauseAdvance, core.CauseJump, core.CauseTouchdown, core.CauseReset}, causes)
	assert.Equal(t, 0, events[0].From)
	assert.Equal(t, 1, events[0].To)
	assert.Equal(t, 9, events[1].To)
}

func TestFullMissionLands(t *testing.T) {
	e := runningEngine(t)
	e.SetSimulationSpeed(10)
	for i := 0; i < 100000 && e.State().Running; i++ {
		e.Update(0.1)
	}
	s := e.State()
	assert.False(t, s.Running)
	assert.True(t, s.Landed)
	assert.GreaterOrEqual(t, s.PhaseIndex, e.Phases().LandingThreshold())
	assert.True(t, s.Position.IsFinite())
}

func TestGuarded_ConcurrentAccess(t *testing.T) {
	g := NewGuarded(NewDefault())
	g.Start()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				g.Update(0.016)
				_ = g.Telemetry()
				_ = g.Trajectory()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			g.SetSimulationSpeed(float64(j % 10))
			g.JumpToPhase(j % 10)
		}
	}()
	wg.Wait()

	s := g.State()
	assert.GreaterOrEqual(t, s.FuelRemaining, 0.0)
	assert.LessOrEqual(t, len(g.Trajectory()), TrajectoryCapacity)
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, applied().Err())
	assert.NoError(t, Result{Applied: true, Reason: ReasonClamped}.Err())
	assert.ErrorIs(t, ignored(ReasonPhaseOutOfRange).Err(), ErrPhaseOutOfRange)
	assert.Equal(t, "phase_out_of_range", ReasonPhaseOutOfRange.String())
}
