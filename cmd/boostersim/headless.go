package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/recorder"
	"github.com/flightlab/boostersim/internal/runner"
	"github.com/flightlab/boostersim/internal/storage"
)

// defaultStepLimit stops a headless run that never touches down.
const defaultStepLimit = 100_000

var errStepLimit = errors.New("step limit reached before touchdown")

var csvHeader = []string{
	"time_s", "phase", "x_m", "y_m", "z_m", "altitude_m",
	"vx_mps", "vy_mps", "vz_mps", "speed_mps",
	"mass_kg", "fuel_pct", "thrust_N", "throttle_pct",
	"pitch_deg", "yaw_deg", "roll_deg", "dynamic_pressure_pa",
}

type headlessOptions struct {
	Steps     int     // 0 runs until touchdown
	Step      float64 // wall seconds per tick
	Every     int     // write every nth tick
	FromPhase int
}

type headlessSummary struct {
	Steps   int
	Rows    int
	SimTime float64
	Landed  bool
}

func runHeadless(args []string) error {
	fs := commonFlags("headless")
	steps := fs.Int("steps", 0, "number of ticks to run; 0 runs until touchdown")
	step := fs.Float64("dt", flight.MaxStep, "seconds per tick")
	every := fs.Int("every", 1, "write every nth tick to the CSV")
	phase := fs.Int("phase", 0, "phase index to start from")
	out := fs.String("out", "telemetry.csv", "CSV output path, - for stdout")
	record := fs.Bool("record", false, "also record the run to the configured storage backend")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(context.Background(), fs, "headless")
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := newEngine()
	if err != nil {
		return fmt.Errorf("invalid flight configuration: %w", err)
	}

	var sampler runner.Sampler
	var finish func()
	if *record {
		backend, err := initStorage(a)
		if err != nil {
			return err
		}
		uploads := newUploader(a, backend)
		simCfg := config.GetSimulationConfig()
		rec := recorder.New(recorder.Dependencies{
			Engine:          engine,
			Backend:         backend,
			Mission:         a.Mission,
			LogManager:      a.SlogManager,
			CaptureInterval: simCfg.CaptureInterval,
			RunName:         simCfg.RunName,
			Version:         Version,
			OnRunEnd:        uploads.enqueue,
		})
		sampler = rec
		finish = func() {
			rec.Close()
			if err := backend.Close(); err != nil {
				a.Logger.Error("Failed to close storage backend", "error", err)
			}
			if u, ok := backend.(storage.Uploadable); ok && u.GetExportedFilePath() != "" {
				a.Logger.Info("Recording exported", "path", u.GetExportedFilePath())
			}
			uploads.drain()
		}
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	start := time.Now()
	summary, err := simulateHeadless(engine, sampler, headlessOptions{
		Steps:     *steps,
		Step:      *step,
		Every:     *every,
		FromPhase: *phase,
	}, w)
	if finish != nil {
		finish()
	}
	if err != nil && !errors.Is(err, errStepLimit) {
		return err
	}

	a.Logger.Info("Headless run finished",
		"steps", summary.Steps,
		"rows", summary.Rows,
		"simTime", summary.SimTime,
		"landed", summary.Landed,
		"output", *out,
		"took", time.Since(start),
	)
	if err != nil {
		a.Logger.Warn("Headless run stopped early", "error", err)
	}
	return nil
}

// simulateHeadless flies the engine in fixed ticks and writes one CSV row per
// Every ticks, plus the final state. It returns errStepLimit when Steps is 0
// and the booster has not landed within defaultStepLimit ticks.
func simulateHeadless(engine *flight.Guarded, sampler runner.Sampler, opts headlessOptions, w io.Writer) (headlessSummary, error) {
	var sum headlessSummary
	if opts.Step <= 0 {
		return sum, fmt.Errorf("tick length must be positive, got %v", opts.Step)
	}
	if opts.Every <= 0 {
		opts.Every = 1
	}
	if opts.FromPhase != 0 {
		if err := engine.JumpToPhase(opts.FromPhase).Err(); err != nil {
			return sum, err
		}
	}
	if err := engine.Start().Err(); err != nil {
		return sum, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return sum, err
	}
	if err := writeRow(cw, engine); err != nil {
		return sum, err
	}
	sum.Rows++

	limit := opts.Steps
	if limit <= 0 {
		limit = defaultStepLimit
	}
	tick := time.Duration(opts.Step * float64(time.Second))
	r := &runner.Runner{Engine: engine, Sampler: sampler}

	var written bool
	for sum.Steps < limit {
		r.Tick(tick)
		sum.Steps++
		written = false
		if sum.Steps%opts.Every == 0 {
			if err := writeRow(cw, engine); err != nil {
				return sum, err
			}
			sum.Rows++
			written = true
		}
		if !engine.State().Running {
			break
		}
	}
	if !written {
		if err := writeRow(cw, engine); err != nil {
			return sum, err
		}
		sum.Rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return sum, fmt.Errorf("failed to write CSV: %w", err)
	}

	st := engine.State()
	sum.SimTime = st.SimTime
	sum.Landed = st.Landed
	if opts.Steps <= 0 && !st.Landed {
		return sum, errStepLimit
	}
	return sum, nil
}

func writeRow(cw *csv.Writer, engine *flight.Guarded) error {
	snap := engine.Telemetry()
	st := engine.State()

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	return cw.Write([]string{
		f(st.SimTime),
		snap.Phase,
		f(st.Position.X),
		f(st.Position.Y),
		f(st.Position.Z),
		f(snap.Altitude),
		f(st.Velocity.X),
		f(st.Velocity.Y),
		f(st.Velocity.Z),
		f(snap.Speed),
		f(snap.Mass),
		f(snap.FuelPercent),
		f(snap.Thrust),
		f(snap.ThrottlePercent),
		f(snap.Pitch),
		f(snap.Yaw),
		f(snap.Roll),
		f(snap.DynamicPressure),
	})
}
