package flight

import (
	"sync"

	"github.com/flightlab/boostersim/pkg/core"
)

// Guarded serializes every call into one Engine behind a single mutex.
// It is the only engine type that may be shared between goroutines.
type Guarded struct {
	mu     sync.Mutex
	engine *Engine
}

func NewGuarded(e *Engine) *Guarded {
	return &Guarded{engine: e}
}

// Do runs fn with exclusive access to the engine.
func (g *Guarded) Do(fn func(*Engine)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.engine)
}

func (g *Guarded) Observe(o Observer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engine.Observe(o)
}

func (g *Guarded) Start() Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Start()
}

func (g *Guarded) Pause() Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Pause()
}

func (g *Guarded) Reset() Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Reset()
}

func (g *Guarded) SetSimulationSpeed(x float64) Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.SetSimulationSpeed(x)
}

func (g *Guarded) JumpToPhase(index int) Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.JumpToPhase(index)
}

func (g *Guarded) Update(wallDelta float64) Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Update(wallDelta)
}

func (g *Guarded) Telemetry() core.TelemetrySnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Telemetry()
}

func (g *Guarded) Trajectory() []core.TrajectorySample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Trajectory()
}

func (g *Guarded) Phases() PhaseTable {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Phases()
}

func (g *Guarded) Vehicle() core.VehicleSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Vehicle()
}

func (g *Guarded) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.State()
}
