package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/flightlab/boostersim/internal/influx"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/mission"
	"github.com/flightlab/boostersim/internal/model"
	"github.com/flightlab/boostersim/internal/recorder"
)

// DefaultInterval between status snapshots.
const DefaultInterval = time.Second

// StatusFileName is written into StatusDir on every snapshot.
const StatusFileName = "status.json"

// StatsProvider is satisfied by *recorder.Recorder.
type StatsProvider interface {
	Stats() recorder.Stats
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Recorder   StatsProvider
	Mission    *mission.Context
	LogManager *logging.SlogManager
	Influx     *influx.Manager // optional
	DB         *gorm.DB        // optional; receives recorder_performances rows
	StatusDir  string          // optional
	Interval   time.Duration
	Now        func() time.Time
}

// Status is the snapshot written to the status file.
type Status struct {
	Time              time.Time      `json:"time"`
	RunID             string         `json:"runId,omitempty"`
	RunName           string         `json:"runName,omitempty"`
	Frame             uint           `json:"frame"`
	Captures          uint64         `json:"captures"`
	PhaseEvents       uint64         `json:"phaseEvents"`
	Dropped           uint64         `json:"dropped"`
	Errors            uint64         `json:"errors"`
	QueueLengths      map[string]int `json:"queueLengths,omitempty"`
	LastWriteDuration float64        `json:"lastWriteDurationMs"`
}

// Service periodically logs recorder health and persists it to InfluxDB
// and the database when those are configured.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects a snapshot and the matching database row.
func (s *Service) GetStatus() (Status, model.RecorderPerformance) {
	stats := s.deps.Recorder.Stats()
	now := s.deps.Now()

	st := Status{
		Time:              now,
		RunID:             stats.RunID,
		Frame:             stats.Frame,
		Captures:          stats.Captures,
		PhaseEvents:       stats.PhaseEvents,
		Dropped:           stats.Dropped,
		Errors:            stats.Errors,
		QueueLengths:      stats.QueueLengths,
		LastWriteDuration: float64(stats.LastWriteDuration) / float64(time.Millisecond),
	}

	perf := model.RecorderPerformance{
		Time:                now,
		Captures:            stats.Captures,
		PhaseEvents:         stats.PhaseEvents,
		TelemetryQueue:      uint32(stats.QueueLengths["telemetry"]),
		PhaseEventQueue:     uint32(stats.QueueLengths["phaseEvents"]),
		Dropped:             stats.Dropped,
		LastWriteDurationMs: float32(st.LastWriteDuration),
	}
	if s.deps.Mission != nil {
		if run, ok := s.deps.Mission.GetRun(); ok {
			st.RunName = run.Name
			perf.FlightRunID = run.ID
		}
	}
	return st, perf
}

// Snapshot takes one status sample and writes it everywhere configured.
func (s *Service) Snapshot() error {
	st, perf := s.GetStatus()
	logger := s.deps.LogManager.Logger()

	logger.Debug("recorder status",
		"runId", st.RunID,
		"captures", st.Captures,
		"phaseEvents", st.PhaseEvents,
		"dropped", st.Dropped,
		"lastWriteMs", st.LastWriteDuration,
	)

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.deps.StatusDir != "" {
		keep(writeStatusFile(filepath.Join(s.deps.StatusDir, StatusFileName), st))
	}
	if s.deps.Influx != nil {
		keep(s.deps.Influx.WritePoint(influx.BucketPerformance, influx.PerformancePoint(influx.PerformanceSample{
			Time:              st.Time,
			RunID:             st.RunID,
			Captures:          st.Captures,
			PhaseEvents:       st.PhaseEvents,
			Dropped:           st.Dropped,
			QueueLengths:      st.QueueLengths,
			LastWriteDuration: time.Duration(st.LastWriteDuration * float64(time.Millisecond)),
		})))
	}
	// Only rows tied to a stored run are useful.
	if s.deps.DB != nil && perf.FlightRunID != 0 {
		if err := s.deps.DB.Create(&perf).Error; err != nil {
			keep(fmt.Errorf("write recorder performance: %w", err))
		}
	}
	if firstErr != nil {
		logger.Error("status snapshot failed", "error", firstErr)
	}
	return firstErr
}

func writeStatusFile(path string, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return os.Rename(tmp, path)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.StatusDir != "" {
		if err := os.MkdirAll(s.deps.StatusDir, 0o755); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("create status dir: %w", err)
		}
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = s.Snapshot()
			}
		}
	}()
	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
