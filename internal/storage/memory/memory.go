// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"
)

// DefaultRetained is how many finished flights stay readable in memory.
const DefaultRetained = 16

// flightRecord groups a run with all its time-series data
type flightRecord struct {
	Run         core.FlightRun
	Telemetry   []core.TelemetryRecord
	PhaseEvents []core.PhaseEvent
}

// Backend stores flights in memory and exports each finished one to JSON
type Backend struct {
	cfg       config.MemoryConfig
	projector geo.Projector
	retained  int

	active   map[string]*flightRecord
	finished map[string]*flightRecord
	order    []string // finished run IDs, oldest first

	idCounter      uint
	lastExportPath string
	lastExportMeta core.UploadMetadata
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, projector geo.Projector) *Backend {
	return &Backend{
		cfg:       cfg,
		projector: projector,
		retained:  DefaultRetained,
		active:    make(map[string]*flightRecord),
		finished:  make(map[string]*flightRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartFlight begins recording a new run
func (b *Backend) StartFlight(run *core.FlightRun) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	run.ID = b.idCounter
	b.active[run.RunID] = &flightRecord{
		Run:         *run,
		Telemetry:   make([]core.TelemetryRecord, 0),
		PhaseEvents: make([]core.PhaseEvent, 0),
	}
	return nil
}

// EndFlight finalizes and exports the run
func (b *Backend) EndFlight(run *core.FlightRun) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.active[run.RunID]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrNoActiveRun, run.RunID)
	}
	delete(b.active, run.RunID)

	rec.Run.Outcome = run.Outcome
	rec.Run.EndTime = run.EndTime
	b.retain(rec)

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON(rec)
}

// retain keeps rec readable, evicting the oldest finished flight past the limit.
func (b *Backend) retain(rec *flightRecord) {
	b.finished[rec.Run.RunID] = rec
	b.order = append(b.order, rec.Run.RunID)
	for len(b.order) > b.retained {
		delete(b.finished, b.order[0])
		b.order = b.order[1:]
	}
}

// RecordTelemetry appends a telemetry record to its run
func (b *Backend) RecordTelemetry(r *core.TelemetryRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.active[r.RunID]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrNoActiveRun, r.RunID)
	}
	rec.Telemetry = append(rec.Telemetry, *r)
	return nil
}

// RecordPhaseEvent appends a phase event to its run
func (b *Backend) RecordPhaseEvent(e *core.PhaseEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.active[e.RunID]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrNoActiveRun, e.RunID)
	}
	rec.PhaseEvents = append(rec.PhaseEvents, *e)
	return nil
}

// ListFlights returns the runs still held in memory, active ones first.
func (b *Backend) ListFlights() ([]core.FlightRun, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.FlightRun, 0, len(b.active)+len(b.order))
	for _, rec := range b.active {
		out = append(out, rec.Run)
	}
	for i := len(b.order) - 1; i >= 0; i-- {
		out = append(out, b.finished[b.order[i]].Run)
	}
	return out, nil
}

// LoadFlight returns a copy of an active or retained run.
func (b *Backend) LoadFlight(runID string) (*storage.Flight, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.active[runID]
	if !ok {
		rec, ok = b.finished[runID]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	return &storage.Flight{
		Run:         rec.Run,
		Telemetry:   append([]core.TelemetryRecord(nil), rec.Telemetry...),
		PhaseEvents: append([]core.PhaseEvent(nil), rec.PhaseEvents...),
	}, nil
}

// GetExportedFilePath returns the path of the most recent export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the most recent export for upload
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
