package influx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/pkg/core"
)

const (
	BucketTelemetry   = "flight_telemetry"
	BucketPerformance = "recorder_performance"
)

// DefaultBucketNames are the buckets created on connect.
var DefaultBucketNames = []string{BucketTelemetry, BucketPerformance}

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influxdb is disabled")

// Manager handles InfluxDB connections and writes. When the server cannot be
// reached, points are written as line protocol to a gzipped backup file.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  BackupPath(cfg.BackupDir, time.Now()),
		cfg:         cfg,
	}
}

// BackupPath names the line-protocol backup file for a session.
func BackupPath(dir string, sessionStart time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("influx_backup_%s.gz", sessionStart.Format("20060102_150405")))
}

// ServerURL returns the influx base URL built from cfg.
func ServerURL(cfg config.InfluxConfig) string {
	return fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port)
}

// Connect establishes a connection to InfluxDB, falling back to the backup file.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		ServerURL(m.cfg),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	running, err := m.Client.Ping(pingCtx)
	cancel()

	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBuckets(ctx); err != nil {
		return err
	}
	m.CreateWriters()
	m.IsValid = true
	m.Logger.Info().Str("url", ServerURL(m.cfg)).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.BackupPath), 0o755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBuckets(ctx context.Context) error {
	orgName := m.cfg.Org

	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("creating organization %q: %w", orgName, err)
		}
	}

	// 30 day retention; flights are short and re-recordable.
	for _, bucket := range m.BucketNames {
		if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 30,
		})
		if err != nil {
			return fmt.Errorf("creating bucket %q: %w", bucket, err)
		}
	}
	return nil
}

// CreateWriters creates non-blocking write APIs for all buckets.
func (m *Manager) CreateWriters() {
	for _, bucket := range m.BucketNames {
		w := m.Client.WriteAPI(m.cfg.Org, bucket)
		m.Writers[bucket] = w

		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, w.Errors())
	}
	m.Logger.Debug().Int("buckets", len(m.BucketNames)).Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket %q not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the client and backup file.
func (m *Manager) Close() error {
	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

// TelemetryPoint converts a captured sample into a flight_telemetry point.
func TelemetryPoint(run *core.FlightRun, rec *core.TelemetryRecord) *influxdb2_write.Point {
	s := rec.Snapshot
	p := influxdb2_write.NewPointWithMeasurement("telemetry").
		AddTag("runId", rec.RunID).
		AddTag("phase", s.Phase).
		AddField("frame", int64(rec.Frame)).
		AddField("simTime", s.Time).
		AddField("altitude", s.Altitude).
		AddField("speed", s.Speed).
		AddField("verticalSpeed", s.VerticalSpeed).
		AddField("mass", s.Mass).
		AddField("fuelPercent", s.FuelPercent).
		AddField("thrust", s.Thrust).
		AddField("throttlePercent", s.ThrottlePercent).
		AddField("pitch", s.Pitch).
		AddField("gForce", s.GForce).
		AddField("downrange", s.Downrange).
		AddField("dynamicPressure", s.DynamicPressure).
		SetTime(rec.Time)
	if run != nil {
		p.AddTag("vehicle", run.Vehicle.Name)
	}
	return p
}

// PhaseEventPoint converts a phase change into a flight_telemetry point.
func PhaseEventPoint(ev *core.PhaseEvent) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("phase_event").
		AddTag("runId", ev.RunID).
		AddTag("cause", string(ev.Cause)).
		AddField("phase", ev.Phase).
		AddField("fromIndex", ev.FromIndex).
		AddField("toIndex", ev.ToIndex).
		AddField("simTime", ev.SimTime).
		SetTime(ev.Time)
}

// PerformanceSample is one recorder_performance measurement.
type PerformanceSample struct {
	Time              time.Time
	RunID             string
	Captures          uint64
	PhaseEvents       uint64
	Dropped           uint64
	QueueLengths      map[string]int
	LastWriteDuration time.Duration
}

// PerformancePoint converts a monitor sample into a recorder_performance point.
func PerformancePoint(s PerformanceSample) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement("recorder").
		AddField("captures", int64(s.Captures)).
		AddField("phaseEvents", int64(s.PhaseEvents)).
		AddField("dropped", int64(s.Dropped)).
		AddField("lastWriteMs", float64(s.LastWriteDuration)/float64(time.Millisecond)).
		SetTime(s.Time)
	if s.RunID != "" {
		p.AddTag("runId", s.RunID)
	}
	for name, n := range s.QueueLengths {
		p.AddField("queue_"+name, n)
	}
	return p
}
