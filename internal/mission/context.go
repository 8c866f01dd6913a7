package mission

import (
	"sync"
	"time"

	"github.com/flightlab/boostersim/pkg/core"
)

// Context holds the flight run currently being recorded.
type Context struct {
	mu  sync.RWMutex
	run *core.FlightRun
}

// NewContext creates a Context with no active run.
func NewContext() *Context {
	return &Context{}
}

// GetRun returns a copy of the active run and whether one exists.
func (c *Context) GetRun() (core.FlightRun, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.run == nil {
		return core.FlightRun{}, false
	}
	return *c.run, true
}

// SetRun makes run the active run.
func (c *Context) SetRun(run core.FlightRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = &run
}

// SetStoredID records the backend ID assigned to the run with runID. It
// reports false when that run is no longer active.
func (c *Context) SetStoredID(runID string, id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil || c.run.RunID != runID {
		return false
	}
	c.run.ID = id
	return true
}

// EndRun stamps the active run with an outcome and clears it. It returns
// the finished run, or false when nothing was active.
func (c *Context) EndRun(outcome string, at time.Time) (core.FlightRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return core.FlightRun{}, false
	}
	run := *c.run
	run.Outcome = outcome
	run.EndTime = at
	c.run = nil
	return run, true
}
