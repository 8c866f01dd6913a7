// Package handlers binds the named simulation commands to a dispatcher.
package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flightlab/boostersim/internal/dispatcher"
	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/util"
	"github.com/flightlab/boostersim/pkg/core"
)

// Command names understood by the dispatcher.
const (
	CmdStart      = "start"
	CmdPause      = "pause"
	CmdReset      = "reset"
	CmdSpeed      = "speed"
	CmdJump       = "jump"
	CmdTelemetry  = "telemetry"
	CmdStatus     = "status"
	CmdTrajectory = "trajectory"
	CmdPhases     = "phases"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Simulator is the engine surface the handlers drive. *flight.Guarded implements it.
type Simulator interface {
	Start() flight.Result
	Pause() flight.Result
	Reset() flight.Result
	SetSimulationSpeed(x float64) flight.Result
	JumpToPhase(index int) flight.Result
	Telemetry() core.TelemetrySnapshot
	Trajectory() []core.TrajectorySample
	Phases() flight.PhaseTable
	State() flight.State
	Do(fn func(*flight.Engine))
}

var _ Simulator = (*flight.Guarded)(nil)

// CommandResult reports whether a mutating command changed the simulation.
type CommandResult struct {
	Command string `json:"command"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	Status  Status `json:"status"`
}

// Status is the compact simulation summary.
type Status struct {
	Running       bool    `json:"running"`
	Landed        bool    `json:"landed"`
	Time          float64 `json:"time"`
	MissionClock  string  `json:"missionClock"`
	Phase         string  `json:"phase"`
	PhaseIndex    int     `json:"phaseIndex"`
	Speed         float64 `json:"simulationSpeed"`
	Altitude      float64 `json:"altitude"`
	Velocity      float64 `json:"velocity"`
	FuelRemaining float64 `json:"fuelRemaining"` // percent
}

// Service turns dispatcher events into simulator calls.
type Service struct {
	sim Simulator
}

func NewService(sim Simulator) *Service {
	return &Service{sim: sim}
}

// RegisterHandlers registers every simulation command. Mutating commands are logged.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdStart, s.handleStart, dispatcher.Logged())
	d.Register(CmdPause, s.handlePause, dispatcher.Logged())
	d.Register(CmdReset, s.handleReset, dispatcher.Logged())
	d.Register(CmdSpeed, s.handleSpeed, dispatcher.Logged())
	d.Register(CmdJump, s.handleJump, dispatcher.Logged())
	d.Register(CmdTelemetry, s.handleTelemetry)
	d.Register(CmdStatus, s.handleStatus)
	d.Register(CmdTrajectory, s.handleTrajectory)
	d.Register(CmdPhases, s.handlePhases)
}

func (s *Service) handleStart(e dispatcher.Event) (any, error) {
	return s.result(CmdStart, s.sim.Start()), nil
}

func (s *Service) handlePause(e dispatcher.Event) (any, error) {
	return s.result(CmdPause, s.sim.Pause()), nil
}

func (s *Service) handleReset(e dispatcher.Event) (any, error) {
	return s.result(CmdReset, s.sim.Reset()), nil
}

func (s *Service) handleSpeed(e dispatcher.Event) (any, error) {
	arg, err := firstArg(e)
	if err != nil {
		return nil, err
	}
	x, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: speed %q is not a number", ErrInvalidArgument, arg)
	}
	return s.result(CmdSpeed, s.sim.SetSimulationSpeed(x)), nil
}

func (s *Service) handleJump(e dispatcher.Event) (any, error) {
	arg, err := firstArg(e)
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: phase index %q is not an integer", ErrInvalidArgument, arg)
	}
	return s.result(CmdJump, s.sim.JumpToPhase(idx)), nil
}

func (s *Service) handleTelemetry(e dispatcher.Event) (any, error) {
	return s.sim.Telemetry(), nil
}

func (s *Service) handleStatus(e dispatcher.Event) (any, error) {
	return s.Status(), nil
}

func (s *Service) handleTrajectory(e dispatcher.Event) (any, error) {
	return s.sim.Trajectory(), nil
}

func (s *Service) handlePhases(e dispatcher.Event) (any, error) {
	return []core.MissionPhase(s.sim.Phases()), nil
}

// Status summarizes the current simulation state. State and telemetry are
// read under one lock so both come from the same tick.
func (s *Service) Status() Status {
	var st flight.State
	var snap core.TelemetrySnapshot
	s.sim.Do(func(e *flight.Engine) {
		st = e.State()
		snap = e.Telemetry()
	})
	return Status{
		Running:       st.Running,
		Landed:        st.Landed,
		Time:          st.SimTime,
		MissionClock:  util.FormatMissionClock(st.SimTime),
		Phase:         snap.Phase,
		PhaseIndex:    st.PhaseIndex,
		Speed:         st.Speed,
		Altitude:      snap.Altitude,
		Velocity:      snap.Speed,
		FuelRemaining: snap.FuelPercent,
	}
}

func (s *Service) result(cmd string, r flight.Result) CommandResult {
	out := CommandResult{Command: cmd, Applied: r.Applied, Status: s.Status()}
	if r.Reason != flight.ReasonNone {
		out.Reason = r.Reason.String()
	}
	return out
}

func firstArg(e dispatcher.Event) (string, error) {
	if len(e.Args) == 0 || strings.TrimSpace(e.Args[0]) == "" {
		return "", fmt.Errorf("%w: %s requires a value", ErrInvalidArgument, e.Command)
	}
	return strings.TrimSpace(e.Args[0]), nil
}
