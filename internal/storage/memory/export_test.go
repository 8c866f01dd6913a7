package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"
)

func recordFlight(t *testing.T, b *Backend, run *core.FlightRun) {
	t.Helper()
	if err := b.StartFlight(run); err != nil {
		t.Fatalf("StartFlight failed: %v", err)
	}
	for i := uint(0); i < 4; i++ {
		_ = b.RecordTelemetry(&core.TelemetryRecord{
			RunID: run.RunID,
			Time:  run.StartTime.Add(time.Duration(i) * time.Second),
			Frame: i,
			Snapshot: core.TelemetrySnapshot{
				Time:     float64(i),
				Altitude: float64(i) * 100,
				Position: core.Vec3{X: float64(i) * 10, Y: 40 + float64(i)*100},
			},
		})
	}
	_ = b.RecordPhaseEvent(&core.PhaseEvent{RunID: run.RunID, Time: run.StartTime.Add(3 * time.Second), SimTime: 3, ToIndex: 1, Phase: "Ascent", Cause: core.CauseAdvance})
	run.Outcome = core.OutcomeLanded
	run.EndTime = run.StartTime.Add(time.Minute)
	if err := b.EndFlight(run); err != nil {
		t.Fatalf("EndFlight failed: %v", err)
	}
}

func TestExportFileName(t *testing.T) {
	run := *newRun("x")
	run.Name = "Falcon 9: RTLS"

	if got := ExportFileName(run, false); got != "Falcon_9__RTLS_20261019_120000.json" {
		t.Errorf("unexpected name %q", got)
	}
	if got := ExportFileName(run, true); !strings.HasSuffix(got, ".json.gz") {
		t.Errorf("expected .json.gz suffix, got %q", got)
	}
}

func TestEndFlight_ExportsJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir}, testProjector)
	run := newRun("plain")

	recordFlight(t, b, run)

	path := b.GetExportedFilePath()
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".json" {
		t.Fatalf("unexpected export path %s", path)
	}
	export, err := ReadExport(path)
	if err != nil {
		t.Fatalf("ReadExport failed: %v", err)
	}
	if export.RunID != "plain" || export.Outcome != core.OutcomeLanded {
		t.Errorf("unexpected header: %+v", export)
	}
	if len(export.Telemetry) != 4 || export.EndFrame != 3 {
		t.Errorf("expected 4 telemetry rows ending at frame 3, got %d/%d", len(export.Telemetry), export.EndFrame)
	}
	if len(export.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(export.Events))
	}
	if !strings.HasPrefix(export.TrajectoryWKT, "LINESTRING Z") {
		t.Errorf("expected trajectory WKT, got %q", export.TrajectoryWKT)
	}

	meta := b.GetExportMetadata()
	if meta.RunID != "plain" || meta.VehicleName != "Falcon 9" || meta.Duration != 3 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestEndFlight_ExportsGzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true}, testProjector)

	recordFlight(t, b, newRun("gz"))

	path := b.GetExportedFilePath()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		t.Fatal("expected gzip magic bytes")
	}
	export, err := ReadExport(path)
	if err != nil {
		t.Fatalf("ReadExport failed: %v", err)
	}
	if len(export.Track) != 4 {
		t.Errorf("expected 4 track points, got %d", len(export.Track))
	}
}

func TestExportFlight(t *testing.T) {
	flight := &storage.Flight{
		Run: *newRun("stored"),
		Telemetry: []core.TelemetryRecord{
			{RunID: "stored", Frame: 0},
			{RunID: "stored", Frame: 1, Snapshot: core.TelemetrySnapshot{Time: 1}},
		},
	}

	path, err := ExportFlight(t.TempDir(), flight, testProjector, false)
	if err != nil {
		t.Fatalf("ExportFlight failed: %v", err)
	}
	export, err := ReadExport(path)
	if err != nil {
		t.Fatalf("ReadExport failed: %v", err)
	}
	if export.EndFrame != 1 {
		t.Errorf("expected end frame 1, got %d", export.EndFrame)
	}
}

func TestReadExport_Missing(t *testing.T) {
	if _, err := ReadExport(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
