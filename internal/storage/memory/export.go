// internal/storage/memory/export.go
package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/internal/storage"
	v1 "github.com/flightlab/boostersim/internal/storage/memory/export/v1"
	"github.com/flightlab/boostersim/internal/util"
	"github.com/flightlab/boostersim/pkg/core"
	"github.com/klauspost/compress/gzip"
)

// exportJSON writes a finished run to a (gzipped) JSON file. Caller holds b.mu.
func (b *Backend) exportJSON(rec *flightRecord) error {
	export := v1.Build(&v1.FlightData{
		Run:         &rec.Run,
		Telemetry:   rec.Telemetry,
		PhaseEvents: rec.PhaseEvents,
		Projector:   b.projector,
	})

	outputPath := filepath.Join(b.cfg.OutputDir, ExportFileName(rec.Run, b.cfg.CompressOutput))
	if err := WriteExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = core.UploadMetadata{
		RunID:       rec.Run.RunID,
		RunName:     rec.Run.Name,
		VehicleName: rec.Run.Vehicle.Name,
		Duration:    export.Duration,
		Outcome:     rec.Run.Outcome,
	}
	return nil
}

// ExportFileName names the export for a run, e.g. Falcon_9_RTLS_20261019_120000.json.gz.
func ExportFileName(run core.FlightRun, compress bool) string {
	name := fmt.Sprintf("%s_%s.json", util.SanitizeFileName(run.Name), run.StartTime.Format("20060102_150405"))
	if compress {
		name += ".gz"
	}
	return name
}

// ExportFlight builds and writes the export for a stored flight. It is used
// by the export command for runs read back from a database.
func ExportFlight(dir string, flight *storage.Flight, projector geo.Projector, compress bool) (string, error) {
	export := v1.Build(&v1.FlightData{
		Run:         &flight.Run,
		Telemetry:   flight.Telemetry,
		PhaseEvents: flight.PhaseEvents,
		Projector:   projector,
	})
	path := filepath.Join(dir, ExportFileName(flight.Run, compress))
	return path, WriteExport(path, export, compress)
}

// WriteExport encodes export to path, creating the directory as needed.
func WriteExport(path string, export v1.Export, compress bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !compress {
		return encode(f, export)
	}

	gzWriter := gzip.NewWriter(f)
	if err := encode(gzWriter, export); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

// ReadExport decodes an export written by WriteExport, gzipped or not.
func ReadExport(path string) (v1.Export, error) {
	var export v1.Export

	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return export, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}

func encode(w io.Writer, export v1.Export) error {
	if err := json.NewEncoder(w).Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
