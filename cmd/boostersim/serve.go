package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/flightlab/boostersim/internal/api"
	"github.com/flightlab/boostersim/internal/channel"
	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/dispatcher"
	"github.com/flightlab/boostersim/internal/handlers"
	"github.com/flightlab/boostersim/internal/influx"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/metrics"
	"github.com/flightlab/boostersim/internal/monitor"
	"github.com/flightlab/boostersim/internal/recorder"
	"github.com/flightlab/boostersim/internal/runner"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"
)

func runServe(args []string) error {
	fs := commonFlags("serve")
	fs.String("address", "", "override server.address")
	fs.Bool("autostart", false, "start the simulation immediately")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, fs, "serve")
	if err != nil {
		return err
	}
	defer a.Close()
	if addr, _ := fs.GetString("address"); addr != "" {
		viper.Set("server.address", addr)
	}
	if auto, _ := fs.GetBool("autostart"); auto {
		viper.Set("simulation.autoStart", true)
	}

	engine, err := newEngine()
	if err != nil {
		return fmt.Errorf("invalid flight configuration: %w", err)
	}

	// InfluxDB is optional; a failed connection falls back to a gzip backup file.
	var influxManager *influx.Manager
	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		influxManager = influx.NewManager(influxCfg, a.zlog("influx"))
		if err := influxManager.Connect(ctx); err != nil {
			a.Logger.Error("Failed to set up InfluxDB", "error", err)
			influxManager = nil
		} else {
			defer func() { _ = influxManager.Close() }()
		}
	}

	backend, err := initStorage(a)
	if err != nil {
		return err
	}

	simCfg := config.GetSimulationConfig()
	uploads := newUploader(a, backend)
	rec := recorder.New(recorder.Dependencies{
		Engine:          engine,
		Backend:         backend,
		Influx:          influxManager,
		Mission:         a.Mission,
		LogManager:      a.SlogManager,
		CaptureInterval: simCfg.CaptureInterval,
		RunName:         simCfg.RunName,
		Version:         Version,
		OnRunEnd:        uploads.enqueue,
	})

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(a.Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	handlers.NewService(engine).RegisterHandlers(eventDispatcher)
	a.Logger.Info("Command handlers registered", "commands", eventDispatcher.Commands())

	monitorDeps := monitor.Dependencies{
		Recorder:   rec,
		Mission:    a.Mission,
		LogManager: a.SlogManager,
		Influx:     influxManager,
		StatusDir:  viper.GetString("logsDir"),
	}
	if p, ok := backend.(dbProvider); ok {
		monitorDeps.DB = p.DB()
	}
	monitorService := monitor.NewService(monitorDeps)

	serverDeps := api.ServerDeps{
		Dispatcher: eventDispatcher,
		Engine:     engine,
		Metrics:    metrics.NewCollector(engine, rec),
		Logger:     a.Logger,
		Config:     config.GetServerConfig(),
	}
	if r, ok := backend.(storage.Reader); ok {
		serverDeps.Flights = r
	}
	server := api.NewServer(serverDeps)

	sim := &runner.Runner{
		Engine:   engine,
		Interval: simCfg.TickInterval,
		Sampler:  rec,
		Logger:   a.Logger,
	}

	if simCfg.AutoStart {
		if res := engine.Start(); !res.Applied {
			a.Logger.Warn("Autostart ignored", "reason", res.Reason.String())
		}
	}
	if err := monitorService.Start(); err != nil {
		a.Logger.Warn("Failed to start status monitor", "error", err)
	}

	var eg errgroup.Group
	eg.Go(func() error { return sim.Run(ctx) })
	eg.Go(func() error {
		defer stop()
		return server.ListenAndServe(ctx)
	})
	eg.Go(func() error {
		uploads.run(ctx)
		return nil
	})
	runErr := eg.Wait()

	a.Logger.Info("Shutting down")
	monitorService.Stop()
	eventDispatcher.Close()
	rec.Close()
	if err := backend.Close(); err != nil {
		a.Logger.Error("Failed to close storage backend", "error", err)
	}
	uploads.drain()
	return runErr
}

// uploader pushes finished exports to the web frontend. Runs are queued
// from the recorder's writer goroutine and uploaded on their own.
type uploader struct {
	a       *app
	source  storage.Uploadable
	client  *api.Client
	pending channel.Channel[pendingUpload]
}

type pendingUpload struct {
	path string
	meta core.UploadMetadata
}

func newUploader(a *app, backend storage.Backend) *uploader {
	u := &uploader{a: a, pending: channel.New[pendingUpload](16)}
	cfg := config.GetUploadConfig()
	if !cfg.Enabled {
		return u
	}
	source, ok := backend.(storage.Uploadable)
	if !ok {
		a.Logger.Warn("Upload enabled but storage backend produces no files", "type", config.GetStorageConfig().Type)
		return u
	}
	u.source = source
	u.client = api.New(cfg.ServerURL, cfg.APIKey)
	return u
}

// enqueue records the export of a finished run. It never blocks.
func (u *uploader) enqueue(run core.FlightRun) {
	if u.client == nil {
		return
	}
	path := u.source.GetExportedFilePath()
	if path == "" {
		return
	}
	if !u.pending.TrySend(pendingUpload{path: path, meta: u.source.GetExportMetadata()}) {
		u.a.Logger.Warn("Upload queue full, skipping", "runId", run.RunID, "path", path)
	}
}

func (u *uploader) run(ctx context.Context) {
	if u.client == nil {
		return
	}
	if err := u.client.Healthcheck(ctx); err != nil {
		u.a.Logger.Info("Web frontend is offline", "error", err)
	} else {
		u.a.Logger.Info("Web frontend is online")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-u.pending.Receive():
			u.upload(ctx, p)
		}
	}
}

// drain uploads whatever was queued while shutting down.
func (u *uploader) drain() {
	if u.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for u.pending.Len() > 0 {
		u.upload(ctx, <-u.pending.Receive())
	}
}

func (u *uploader) upload(ctx context.Context, p pendingUpload) {
	start := time.Now()
	if err := u.client.Upload(ctx, p.path, p.meta); err != nil {
		u.a.Logger.Error("Failed to upload recording", "path", p.path, "runId", p.meta.RunID, "error", err)
		return
	}
	u.a.Logger.Info("Uploaded recording", "path", p.path, "runId", p.meta.RunID, "took", time.Since(start))
}
