package flight

import (
	"fmt"

	"github.com/flightlab/boostersim/internal/util"
	"github.com/flightlab/boostersim/pkg/core"
)

// Event is emitted when the active phase changes or the booster lands.
type Event struct {
	Cause   core.PhaseEventCause
	From    int
	To      int
	SimTime float64
}

// Observer receives engine events synchronously. Observers must not call
// back into the engine.
type Observer func(Event)

// Engine owns the simulation state and runs one tick per Update call.
// It has no internal locking.
type Engine struct {
	vehicle    core.VehicleSpec
	phases     PhaseTable
	state      State
	clock      Clock
	trajectory *Trajectory
	observers  []Observer
}

// New validates the vehicle and phase table and returns a reset engine.
func New(vehicle core.VehicleSpec, phases PhaseTable) (*Engine, error) {
	if err := ValidateVehicle(vehicle); err != nil {
		return nil, err
	}
	if err := phases.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		vehicle:    vehicle,
		phases:     append(PhaseTable(nil), phases...),
		clock:      NewClock(),
		trajectory: NewTrajectory(TrajectoryCapacity),
	}
	e.reset()
	return e, nil
}

// NewDefault builds an engine with the default vehicle and phase table.
func NewDefault() *Engine {
	e, err := New(DefaultVehicle(), DefaultPhases())
	if err != nil {
		panic(fmt.Sprintf("default flight profile is invalid: %v", err))
	}
	return e
}

// Observe registers an observer for phase and touchdown events.
func (e *Engine) Observe(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Engine) emit(ev Event) {
	for _, o := range e.observers {
		o(ev)
	}
}

// Start resumes ticking. Touchdown is terminal: a landed booster stays down
// until Reset or JumpToPhase.
func (e *Engine) Start() Result {
	if e.state.Landed {
		return ignored(ReasonLanded)
	}
	e.state.Running = true
	return applied()
}

func (e *Engine) Pause() Result {
	e.state.Running = false
	return applied()
}

// Reset restores the pre-launch state and clears the trajectory.
// The speed multiplier is kept.
func (e *Engine) Reset() Result {
	from := e.state.PhaseIndex
	e.reset()
	e.emit(Event{Cause: core.CauseReset, From: from, To: 0})
	return applied()
}

func (e *Engine) reset() {
	e.state = initialState(e.vehicle, e.phases)
	e.state.Speed = e.clock.Speed()
	e.trajectory.Clear()
}

// SetSimulationSpeed clamps x to [MinSpeed, MaxSpeed].
func (e *Engine) SetSimulationSpeed(x float64) Result {
	r := e.clock.SetSpeed(x)
	e.state.Speed = e.clock.Speed()
	return r
}

// JumpToPhase moves the timeline to the start of a phase and overwrites the
// state with that phase's scrub approximation. Out-of-range indices are ignored.
func (e *Engine) JumpToPhase(index int) Result {
	if !e.phases.InRange(index) {
		return ignored(ReasonPhaseOutOfRange)
	}
	from := e.state.PhaseIndex
	start := e.phases.StartTime(index)
	e.state.SimTime = start
	e.state.PhaseStartTime = start
	e.state.PhaseIndex = index
	e.state.Throttle = e.phases[index].Throttle
	e.state.Landed = false
	applyScrub(&e.state, e.vehicle, index)
	e.emit(Event{Cause: core.CauseJump, From: from, To: index, SimTime: start})
	return applied()
}

// Update advances the simulation by one tick for a wall-clock delta in
// seconds. It is a no-op while paused and for non-finite deltas.
func (e *Engine) Update(wallDelta float64) Result {
	if !e.state.Running {
		return ignored(ReasonNotRunning)
	}
	if !util.IsFinite(wallDelta) {
		return ignored(ReasonNonFinite)
	}

	s := &e.state
	dt := e.clock.Step(wallDelta)
	s.SimTime += dt

	from := s.PhaseIndex
	advanced := advancePhase(s, e.phases, s.SimTime)
	phase := e.phases[s.PhaseIndex]
	s.Throttle = phase.Throttle

	burnFuel(s, e.vehicle, dt)
	integrate(s, NetForce(s, e.vehicle), dt)
	contact := resolveGroundContact(s, e.phases.LandingThreshold())
	steer(s, phase.TargetSteeringDeg, s.PhaseIndex >= e.phases.LandingThreshold(), dt)
	e.trajectory.Append(core.TrajectorySample{Time: s.SimTime, Position: s.Position})

	if advanced {
		e.emit(Event{Cause: core.CauseAdvance, From: from, To: s.PhaseIndex, SimTime: s.SimTime})
	}
	if contact == ContactTouchdown {
		e.emit(Event{Cause: core.CauseTouchdown, From: s.PhaseIndex, To: s.PhaseIndex, SimTime: s.SimTime})
	}
	return applied()
}

// Telemetry derives a fresh snapshot.
func (e *Engine) Telemetry() core.TelemetrySnapshot {
	return BuildTelemetry(e.state, e.vehicle, e.phases)
}

// Trajectory returns the recorded samples, oldest first.
func (e *Engine) Trajectory() []core.TrajectorySample {
	return e.trajectory.Samples()
}

// Phases returns a copy of the phase table.
func (e *Engine) Phases() PhaseTable {
	return append(PhaseTable(nil), e.phases...)
}

func (e *Engine) Vehicle() core.VehicleSpec { return e.vehicle }

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state }
