// Package cache keeps the runs a storage backend currently has open, so
// per-sample writes never need a database lookup.
package cache

import (
	"sort"
	"sync"

	"github.com/flightlab/boostersim/pkg/core"
)

// OpenRun is a run being written: its database ID and the track flown so far.
type OpenRun struct {
	ID    uint
	Track []core.TrajectorySample
}

// RunCache maps run UUIDs to open runs.
type RunCache struct {
	mu   sync.RWMutex
	runs map[string]*OpenRun
}

func NewRunCache() *RunCache {
	return &RunCache{runs: make(map[string]*OpenRun)}
}

// Open registers runID with its database ID, replacing any earlier entry.
func (c *RunCache) Open(runID string, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[runID] = &OpenRun{ID: id}
}

// Get returns the database ID of an open run.
func (c *RunCache) Get(runID string) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.runs[runID]; ok {
		return r.ID, true
	}
	return 0, false
}

// Has reports whether runID is open.
func (c *RunCache) Has(runID string) bool {
	_, ok := c.Get(runID)
	return ok
}

// AppendTrack adds a flown position to an open run. It returns false when
// the run is not open.
func (c *RunCache) AppendTrack(runID string, s core.TrajectorySample) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.runs[runID]
	if !ok {
		return false
	}
	r.Track = append(r.Track, s)
	return true
}

// Close removes runID and returns what was cached for it.
func (c *RunCache) Close(runID string) (OpenRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.runs[runID]
	if !ok {
		return OpenRun{}, false
	}
	delete(c.runs, runID)
	return *r, true
}

// IDs returns the open run IDs in sorted order.
func (c *RunCache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.runs))
	for id := range c.runs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *RunCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.runs)
}

// Reset forgets every open run.
func (c *RunCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = make(map[string]*OpenRun)
}
