package influx

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/pkg/core"
)

// closedPort returns a localhost port with nothing listening on it.
func closedPort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())
	return port
}

func TestConnectDisabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{Enabled: false}, zerolog.Nop())
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestBackupPath(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "influx_backup_20260304_050607.gz"), BackupPath("logs", ts))
}

func TestServerURL(t *testing.T) {
	cfg := config.InfluxConfig{Protocol: "https", Host: "influx.local", Port: "8086"}
	assert.Equal(t, "https://influx.local:8086", ServerURL(cfg))
}

func TestWritePointWithoutBackend(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop())
	err := m.WritePoint(BucketTelemetry, PerformancePoint(PerformanceSample{Time: time.Now()}))
	assert.Error(t, err)
}

func TestUnreachableServerFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	cfg := config.InfluxConfig{
		Enabled:   true,
		Protocol:  "http",
		Host:      "127.0.0.1",
		Port:      closedPort(t),
		Org:       "boostersim",
		BackupDir: dir,
	}
	m := NewManager(cfg, zerolog.Nop())
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)

	rec := &core.TelemetryRecord{
		RunID: "run-1",
		Time:  time.Unix(1700000000, 0).UTC(),
		Frame: 3,
		Snapshot: core.TelemetrySnapshot{
			Time:     1.5,
			Altitude: 120.25,
			Phase:    "Liftoff",
		},
	}
	run := &core.FlightRun{Vehicle: core.VehicleSpec{Name: "Falcon9"}}
	require.NoError(t, m.WritePoint(BucketTelemetry, TelemetryPoint(run, rec)))
	require.NoError(t, m.Close())

	f, err := os.Open(m.BackupPath)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	line := string(raw)
	assert.Contains(t, line, "telemetry,")
	assert.Contains(t, line, "runId=run-1")
	assert.Contains(t, line, "vehicle=Falcon9")
	assert.Contains(t, line, "altitude=120.25")
	assert.Contains(t, line, "frame=3i")
}

func TestPhaseEventPoint(t *testing.T) {
	ev := &core.PhaseEvent{RunID: "r", FromIndex: 0, ToIndex: 1, Phase: "Max Q", Cause: core.CauseAdvance, SimTime: 3}
	p := PhaseEventPoint(ev)
	assert.Equal(t, "phase_event", p.Name())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "advance", tags["cause"])
	assert.Equal(t, "r", tags["runId"])
}

func TestPerformancePointQueues(t *testing.T) {
	p := PerformancePoint(PerformanceSample{
		Time:         time.Now(),
		Captures:     10,
		QueueLengths: map[string]int{"telemetry": 4},
	})
	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(10), fields["captures"])
	assert.Equal(t, int64(4), fields["queue_telemetry"])
	assert.Empty(t, p.TagList())
}
