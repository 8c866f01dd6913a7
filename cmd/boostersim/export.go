package main

import (
	"context"
	"fmt"
	"os"
	"time"

	gormstorage "github.com/flightlab/boostersim/internal/storage/gorm"
	"github.com/flightlab/boostersim/internal/storage/memory"
)

func runExport(args []string) error {
	fs := commonFlags("export")
	dbPath := fs.String("db", "", "SQLite file to read; Postgres (or the newest dump) when empty")
	outDir := fs.String("out", ".", "directory to write recordings to")
	compress := fs.Bool("gzip", true, "gzip the JSON output")
	list := fs.Bool("list", false, "list stored runs instead of exporting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	runIDs := fs.Args()
	if !*list && len(runIDs) == 0 {
		return fmt.Errorf("no run IDs provided (use --list to see stored runs)")
	}

	a, err := newApp(context.Background(), fs, "export")
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := openDatabase(a, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if *list {
		runs, err := gormstorage.ListFlights(m.DB)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		for _, run := range runs {
			fmt.Printf("%s\t%s\t%s\t%s\n", run.RunID, run.StartTime.Format(time.RFC3339), run.Outcome, run.Name)
		}
		return nil
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, runID := range runIDs {
		txStart := time.Now()
		flight, err := gormstorage.LoadFlight(m.DB, runID)
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", runID, err)
		}
		path, err := memory.ExportFlight(*outDir, flight, launchProjector(), *compress)
		if err != nil {
			return fmt.Errorf("failed to export run %s: %w", runID, err)
		}
		a.Logger.Info("Exported run",
			"runId", runID,
			"samples", len(flight.Telemetry),
			"phaseEvents", len(flight.PhaseEvents),
			"path", path,
			"took", time.Since(txStart),
		)
		fmt.Println("Wrote flight data to", path)
	}
	return nil
}
