// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/flightlab/boostersim/pkg/core"
)

var (
	// ErrNoActiveRun is returned when a record arrives for a run that was never started.
	ErrNoActiveRun = errors.New("no active flight run")
	// ErrRunNotFound is returned by readers for an unknown run ID.
	ErrRunNotFound = errors.New("flight run not found")
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management. StartFlight assigns run.ID when the backend has one.
	StartFlight(run *core.FlightRun) error
	EndFlight(run *core.FlightRun) error

	// Recording
	RecordTelemetry(r *core.TelemetryRecord) error
	RecordPhaseEvent(e *core.PhaseEvent) error
}

// Flight is a complete recorded run as read back from a backend.
type Flight struct {
	Run         core.FlightRun
	Telemetry   []core.TelemetryRecord
	PhaseEvents []core.PhaseEvent
}

// Reader is an optional interface for backends that can replay stored runs.
type Reader interface {
	ListFlights() ([]core.FlightRun, error)
	LoadFlight(runID string) (*Flight, error)
}

// QueueReporter is an optional interface for backends that buffer writes.
type QueueReporter interface {
	QueueLengths() map[string]int
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to a web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

// Trajectory extracts the flown positions from a flight's telemetry.
func (f *Flight) Trajectory() []core.TrajectorySample {
	out := make([]core.TrajectorySample, 0, len(f.Telemetry))
	for _, r := range f.Telemetry {
		out = append(out, core.TrajectorySample{Time: r.Snapshot.Time, Position: r.Snapshot.Position})
	}
	return out
}
