// Package gormstorage implements storage.Backend on any GORM database. Rows
// are buffered in queues and written in batches by a background goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flightlab/boostersim/internal/cache"
	"github.com/flightlab/boostersim/internal/database"
	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/model"
	"github.com/flightlab/boostersim/internal/model/convert"
	"github.com/flightlab/boostersim/internal/queue"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	Projector     geo.Projector
	FlushInterval time.Duration
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Telemetry   *queue.Queue[model.TelemetrySample]
	PhaseEvents *queue.Queue[model.PhaseEventRecord]
}

func newQueues() *queues {
	return &queues{
		Telemetry:   queue.New[model.TelemetrySample](),
		PhaseEvents: queue.New[model.PhaseEventRecord](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	runs *cache.RunCache // run UUID -> flight_runs.id and flown track

	writeMu       sync.Mutex
	lastWriteNano atomic.Int64
	rejected      atomic.Uint64

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
		runs:   cache.NewRunCache(),
	}
}

// DB returns the underlying database handle.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the DB writer goroutine. Without a DB
// the backend only queues, which is what the unit tests rely on.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	if err := database.Migrate(b.deps.DB); err != nil {
		close(b.done)
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writeLoop()
	return nil
}

// Close stops the writer goroutine and flushes what is left.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	<-b.done
	return b.Flush()
}

// StartFlight inserts the run synchronously so later rows can reference its ID.
func (b *Backend) StartFlight(run *core.FlightRun) error {
	if b.deps.DB == nil {
		b.runs.Open(run.RunID, 0)
		return nil
	}

	gormRun := convert.CoreToFlightRun(*run)
	gormRun.ID = 0
	if err := b.deps.DB.Create(&gormRun).Error; err != nil {
		return fmt.Errorf("failed to insert flight run: %w", err)
	}
	run.ID = gormRun.ID
	b.runs.Open(run.RunID, gormRun.ID)
	return nil
}

// EndFlight flushes pending rows, stamps the outcome and stores the flown track.
func (b *Backend) EndFlight(run *core.FlightRun) error {
	open, ok := b.runs.Close(run.RunID)
	if !ok {
		return storage.ErrNoActiveRun
	}
	id, track := open.ID, open.Track
	if b.deps.DB == nil {
		return nil
	}
	if err := b.Flush(); err != nil {
		b.deps.LogManager.WriteLog(":DB:WRITER:", fmt.Sprintf("Flush before ending %s: %v", run.RunID, err), "WARN")
	}

	end := run.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	if err := b.deps.DB.Model(&model.FlightRun{}).Where("id = ?", id).Updates(map[string]any{
		"outcome":  run.Outcome,
		"end_time": end,
	}).Error; err != nil {
		return fmt.Errorf("failed to finalize flight run: %w", err)
	}

	path, err := b.deps.Projector.LineString(track)
	if errors.Is(err, geo.ErrShortTrack) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := b.deps.DB.Create(&model.FlightTrack{
		FlightRunID: id,
		Points:      len(track),
		Path:        path,
	}).Error; err != nil {
		return fmt.Errorf("failed to insert flight track: %w", err)
	}
	return nil
}

func (b *Backend) lookup(runID string) (uint, error) {
	id, ok := b.runs.Get(runID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", storage.ErrNoActiveRun, runID)
	}
	return id, nil
}

// RecordTelemetry converts and queues a telemetry sample.
func (b *Backend) RecordTelemetry(r *core.TelemetryRecord) error {
	id, err := b.lookup(r.RunID)
	if err != nil {
		return err
	}
	row := convert.CoreToTelemetrySample(*r)
	row.FlightRunID = id
	b.queues.Telemetry.Push(row)
	b.runs.AppendTrack(r.RunID, core.TrajectorySample{Time: r.Snapshot.Time, Position: r.Snapshot.Position})
	return nil
}

// RecordPhaseEvent converts and queues a phase event.
func (b *Backend) RecordPhaseEvent(e *core.PhaseEvent) error {
	id, err := b.lookup(e.RunID)
	if err != nil {
		return err
	}
	row := convert.CoreToPhaseEvent(*e)
	row.FlightRunID = id
	b.queues.PhaseEvents.Push(row)
	return nil
}

// QueueLengths reports rows waiting for the writer.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"telemetry":   b.queues.Telemetry.Len(),
		"phaseEvents": b.queues.PhaseEvents.Len(),
	}
}

// LastWriteDuration is how long the most recent flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// Flush writes all queued rows now.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	log := b.deps.LogManager.WriteLog
	err := errors.Join(
		writeQueue(b.deps.DB, b.queues.Telemetry, "telemetry samples", log, &b.rejected),
		writeQueue(b.deps.DB, b.queues.PhaseEvents, "phase events", log, &b.rejected),
	)
	b.lastWriteNano.Store(int64(time.Since(start)))
	return err
}

// Rejected counts rows the database refused and that were dropped.
func (b *Backend) Rejected() uint64 {
	return b.rejected.Load()
}

// writeQueue writes all items from a queue to the database in a transaction.
// When the batch fails, rows are retried one by one: rows the database
// rejects are dropped and counted, so one bad row cannot block the rest. If
// every row fails the database is likely unavailable and the batch goes back
// on the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), rejected *atomic.Uint64) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	tx := db.Begin()
	err := tx.Create(&items).Error
	if err == nil {
		if err = tx.Commit().Error; err == nil {
			return nil
		}
	} else {
		tx.Rollback()
	}
	log(":DB:WRITER:", fmt.Sprintf("Error creating %s batch, retrying row by row: %v", name, err), "WARN")

	var failed []T
	var lastErr error
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			failed = append(failed, items[i])
			lastErr = err
		}
	}
	switch {
	case len(failed) == 0:
		return nil
	case len(failed) == len(items):
		q.Push(failed...)
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, lastErr), "ERROR")
		return fmt.Errorf("write %s: %w", name, lastErr)
	default:
		rejected.Add(uint64(len(failed)))
		log(":DB:WRITER:", fmt.Sprintf("Dropped %d rejected %s: %v", len(failed), name, lastErr), "ERROR")
		return fmt.Errorf("write %s: %d rows rejected: %w", name, len(failed), lastErr)
	}
}

func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}

// ListFlights returns every stored run, newest first.
func (b *Backend) ListFlights() ([]core.FlightRun, error) {
	return ListFlights(b.deps.DB)
}

// LoadFlight reads a run with its telemetry and phase events.
func (b *Backend) LoadFlight(runID string) (*storage.Flight, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	return LoadFlight(b.deps.DB, runID)
}

// ListFlights returns every run stored in db, newest first.
func ListFlights(db *gorm.DB) ([]core.FlightRun, error) {
	if db == nil {
		return nil, nil
	}
	var rows []model.FlightRun
	if err := db.Order("start_time desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list flight runs: %w", err)
	}
	out := make([]core.FlightRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.FlightRunToCore(r))
	}
	return out, nil
}

// LoadFlight reads one run from db by its run ID.
func LoadFlight(db *gorm.DB, runID string) (*storage.Flight, error) {
	if db == nil {
		return nil, storage.ErrRunNotFound
	}

	var run model.FlightRun
	err := db.Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flight run: %w", err)
	}

	var samples []model.TelemetrySample
	if err := db.Where("flight_run_id = ?", run.ID).Order("capture_frame").Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("failed to load telemetry: %w", err)
	}
	var events []model.PhaseEventRecord
	if err := db.Where("flight_run_id = ?", run.ID).Order("id").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load phase events: %w", err)
	}

	flight := &storage.Flight{
		Run:         convert.FlightRunToCore(run),
		Telemetry:   make([]core.TelemetryRecord, 0, len(samples)),
		PhaseEvents: make([]core.PhaseEvent, 0, len(events)),
	}
	for _, s := range samples {
		flight.Telemetry = append(flight.Telemetry, convert.TelemetrySampleToCore(s, runID))
	}
	for _, e := range events {
		flight.PhaseEvents = append(flight.PhaseEvents, convert.PhaseEventToCore(e, runID))
	}
	return flight, nil
}
