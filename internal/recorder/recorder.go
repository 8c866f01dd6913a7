// Package recorder turns the engine's state into flight runs, telemetry
// samples and phase events for a storage backend and InfluxDB.
package recorder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/influx"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/mission"
	"github.com/flightlab/boostersim/internal/queue"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"
)

// eventQueueLimit bounds engine events waiting for the next Sample.
const eventQueueLimit = 1024

// writeQueueLimit bounds backend writes waiting for the writer goroutine.
const writeQueueLimit = 65536

// Dependencies holds everything the recorder writes to or reads from.
type Dependencies struct {
	Engine     *flight.Guarded
	Backend    storage.Backend
	Influx     *influx.Manager // optional
	Mission    *mission.Context
	LogManager *logging.SlogManager

	CaptureInterval float64 // sim seconds; <= 0 captures on every Sample
	RunName         string
	Version         string

	// Now returns wall time; defaults to time.Now.
	Now func() time.Time

	// OnRunEnd is called after a run has been handed to the backend. It runs
	// on the writer goroutine and must not block.
	OnRunEnd func(run core.FlightRun)
}

// WriteDurationProvider is implemented by backends that batch their writes.
type WriteDurationProvider interface {
	LastWriteDuration() time.Duration
}

// Stats is a point-in-time view of the recorder's counters.
type Stats struct {
	RunID             string
	Frame             uint
	Captures          uint64
	PhaseEvents       uint64
	Dropped           uint64
	Errors            uint64
	QueueLengths      map[string]int
	LastWriteDuration time.Duration
}

// writeOp is one backend call, run in order on the writer goroutine.
type writeOp func()

// Recorder samples a Guarded engine. Engine observers only enqueue and
// Sample only does bookkeeping; backend and InfluxDB writes run on the
// recorder's own writer goroutine so a slow backend never stalls a tick.
type Recorder struct {
	deps   Dependencies
	events *queue.Queue[flight.Event]
	writes *queue.Queue[writeOp]
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}

	mu          sync.Mutex
	run         *core.FlightRun
	frame       uint
	lastCapture float64
	captured    bool
	closed      bool
	closeOnce   sync.Once

	stored core.FlightRun // writer goroutine only

	captures    atomic.Uint64
	phaseEvents atomic.Uint64
	errors      atomic.Uint64
}

// New creates a recorder and subscribes it to engine events.
func New(deps Dependencies) *Recorder {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Mission == nil {
		deps.Mission = mission.NewContext()
	}
	r := &Recorder{
		deps:   deps,
		events: queue.NewBounded[flight.Event](eventQueueLimit),
		writes: queue.NewBounded[writeOp](writeQueueLimit),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	deps.Engine.Observe(func(ev flight.Event) {
		r.events.Push(ev)
	})
	go r.writeLoop()
	return r
}

func (r *Recorder) enqueue(op writeOp) {
	r.writes.Push(op)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Recorder) writeLoop() {
	defer close(r.done)
	for {
		select {
		case <-r.wake:
			r.runWrites()
		case <-r.stop:
			r.runWrites()
			return
		}
	}
}

func (r *Recorder) runWrites() {
	for _, op := range r.writes.GetAndEmpty() {
		op()
	}
}

// Flush blocks until every write queued before the call has been handed
// to the backend.
func (r *Recorder) Flush() {
	barrier := make(chan struct{})
	r.enqueue(func() { close(barrier) })
	select {
	case <-barrier:
	case <-r.done:
	}
}

// Sample drains pending engine events and captures telemetry when the
// capture interval has elapsed. Call it after each engine update.
func (r *Recorder) Sample() {
	var snap core.TelemetrySnapshot
	var phases flight.PhaseTable
	r.deps.Engine.Do(func(e *flight.Engine) {
		snap = e.Telemetry()
		phases = e.Phases()
	})
	events := r.events.GetAndEmpty()
	now := r.deps.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	landed := false
	for _, ev := range events {
		if r.run == nil && ev.Cause != core.CauseReset {
			r.startRun(now)
		}
		if r.run == nil {
			continue
		}
		r.recordEvent(ev, phases, now)

		switch ev.Cause {
		case core.CauseReset:
			r.endRun(core.OutcomeAborted, now)
		case core.CauseTouchdown:
			landed = true
		}
	}

	if r.run == nil && snap.Running {
		r.startRun(now)
	}
	if r.run == nil {
		return
	}

	if landed || r.due(snap.Time) {
		r.capture(snap, now)
	}
	if landed {
		r.endRun(core.OutcomeLanded, now)
	}
}

// due reports whether a sample at simTime should be captured. A jump back
// in time restarts the cadence.
func (r *Recorder) due(simTime float64) bool {
	if !r.captured || simTime < r.lastCapture {
		return true
	}
	return simTime-r.lastCapture >= r.deps.CaptureInterval && simTime > r.lastCapture
}

func (r *Recorder) startRun(now time.Time) {
	var vehicle core.VehicleSpec
	var phases flight.PhaseTable
	r.deps.Engine.Do(func(e *flight.Engine) {
		vehicle = e.Vehicle()
		phases = e.Phases()
	})

	run := &core.FlightRun{
		RunID:           uuid.NewString(),
		Name:            r.deps.RunName,
		StartTime:       now,
		CaptureInterval: r.deps.CaptureInterval,
		Vehicle:         vehicle,
		Phases:          phases,
		Outcome:         core.OutcomeInProgress,
		RecorderVersion: r.deps.Version,
	}
	r.run = run
	r.frame = 0
	r.captured = false
	r.deps.Mission.SetRun(*run)
	r.deps.LogManager.Logger().Info("flight run started", "runId", run.RunID, "name", run.Name)

	stored := *run
	r.enqueue(func() {
		if err := r.deps.Backend.StartFlight(&stored); err != nil {
			r.errors.Add(1)
			r.deps.LogManager.Logger().Error("failed to start flight run", "runId", stored.RunID, "error", err)
		}
		r.stored = stored
		r.deps.Mission.SetStoredID(stored.RunID, stored.ID)
	})
}

func (r *Recorder) endRun(outcome string, now time.Time) {
	finished, ok := r.deps.Mission.EndRun(outcome, now)
	if !ok {
		finished = *r.run
		finished.Outcome = outcome
		finished.EndTime = now
	}
	r.deps.LogManager.Logger().Info("flight run ended",
		"runId", finished.RunID,
		"outcome", outcome,
		"frames", r.frame,
	)
	r.run = nil

	r.enqueue(func() {
		if finished.ID == 0 && r.stored.RunID == finished.RunID {
			finished.ID = r.stored.ID
		}
		if err := r.deps.Backend.EndFlight(&finished); err != nil {
			r.errors.Add(1)
			r.deps.LogManager.Logger().Error("failed to end flight run", "runId", finished.RunID, "error", err)
		}
		if r.deps.OnRunEnd != nil {
			r.deps.OnRunEnd(finished)
		}
	})
}

func (r *Recorder) recordEvent(ev flight.Event, phases flight.PhaseTable, now time.Time) {
	name := ""
	if phases.InRange(ev.To) {
		name = phases[ev.To].Name
	}
	pe := &core.PhaseEvent{
		RunID:     r.run.RunID,
		Time:      now,
		SimTime:   ev.SimTime,
		FromIndex: ev.From,
		ToIndex:   ev.To,
		Phase:     name,
		Cause:     ev.Cause,
	}
	r.enqueue(func() {
		if err := r.deps.Backend.RecordPhaseEvent(pe); err != nil {
			r.errors.Add(1)
			r.deps.LogManager.WriteLog("recorder:event", err.Error(), "ERROR")
			return
		}
		r.phaseEvents.Add(1)
		r.writeInflux(influx.BucketTelemetry, influx.PhaseEventPoint(pe), "phase event")
	})
}

func (r *Recorder) capture(snap core.TelemetrySnapshot, now time.Time) {
	rec := &core.TelemetryRecord{
		RunID:    r.run.RunID,
		Time:     now,
		Frame:    r.frame,
		Snapshot: snap,
	}
	r.lastCapture = snap.Time
	r.captured = true
	r.frame++

	r.enqueue(func() {
		if err := r.deps.Backend.RecordTelemetry(rec); err != nil {
			r.errors.Add(1)
			r.deps.LogManager.WriteLog("recorder:capture", err.Error(), "ERROR")
			return
		}
		r.captures.Add(1)
		r.writeInflux(influx.BucketTelemetry, influx.TelemetryPoint(&r.stored, rec), "telemetry")
	})
}

func (r *Recorder) writeInflux(bucket string, p *influxdb2_write.Point, what string) {
	if r.deps.Influx == nil {
		return
	}
	if err := r.deps.Influx.WritePoint(bucket, p); err != nil {
		r.deps.LogManager.WriteLog("recorder:influx", what+": "+err.Error(), "WARN")
	}
}

// Close ends an open run as aborted, then waits for queued writes to
// reach the backend. Later Samples are ignored.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		if r.run != nil {
			r.endRun(core.OutcomeAborted, r.deps.Now())
		}
		r.closed = true
		r.mu.Unlock()

		close(r.stop)
		<-r.done
	})
}

// ActiveRun returns the run being recorded, if any.
func (r *Recorder) ActiveRun() (core.FlightRun, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.run == nil {
		return core.FlightRun{}, false
	}
	return *r.run, true
}

// Stats returns the recorder counters along with backend queue state.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	s := Stats{Frame: r.frame}
	if r.run != nil {
		s.RunID = r.run.RunID
	}
	r.mu.Unlock()

	s.Captures = r.captures.Load()
	s.PhaseEvents = r.phaseEvents.Load()
	s.Errors = r.errors.Load()
	s.Dropped = r.events.Dropped() + r.writes.Dropped()
	s.QueueLengths = map[string]int{"recorder": r.writes.Len()}
	if qr, ok := r.deps.Backend.(storage.QueueReporter); ok {
		for k, v := range qr.QueueLengths() {
			s.QueueLengths[k] = v
		}
	}
	if wd, ok := r.deps.Backend.(WriteDurationProvider); ok {
		s.LastWriteDuration = wd.LastWriteDuration()
	}
	return s
}
