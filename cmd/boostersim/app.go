package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/mission"
	intOtel "github.com/flightlab/boostersim/internal/otel"
)

// app holds the process-wide logging stack shared by every command.
type app struct {
	SlogManager *logging.SlogManager
	Logger      *slog.Logger
	Mission     *mission.Context

	logFile *lumberjack.Logger
	gelf    *gelf.Writer
	otel    *intOtel.Provider
}

// commonFlags registers the flags every command understands and binds the
// overridable ones into viper.
func commonFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", ".", "directory containing "+config.FileName)
	fs.String("log-level", "", "override logLevel (debug, info, warn, error)")
	fs.Bool("log-stdout", false, "log to stdout instead of the rotating log file")
	return fs
}

// loadConfig reads the config file from the --config directory. A missing
// file is not fatal; every key has a default.
func loadConfig(fs *pflag.FlagSet) error {
	dir, _ := fs.GetString("config")
	err := config.Load(dir)
	if lvl, _ := fs.GetString("log-level"); lvl != "" {
		viper.Set("logLevel", lvl)
	}
	return err
}

// newApp sets up logging in the same order on every start: a stdout logger
// first, then the rotating file, OTel and Graylog once config is loaded.
func newApp(ctx context.Context, fs *pflag.FlagSet, component string) (*app, error) {
	a := &app{
		SlogManager: logging.NewSlogManager(),
		Mission:     mission.NewContext(),
	}
	a.SlogManager.Setup(nil, "info", nil)
	a.Logger = a.SlogManager.Logger()

	if err := loadConfig(fs); err != nil {
		a.Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		a.Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	level := viper.GetString("logLevel")
	var out io.Writer
	if toStdout, _ := fs.GetBool("log-stdout"); !toStdout {
		logsDir := viper.GetString("logsDir")
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logs dir: %w", err)
		}
		path := logging.LogFilePath(logsDir, AppName+"_"+component, sessionStart)
		a.logFile = logging.NewRotatingFile(path)
		out = a.logFile
		a.Logger.Info("Begin logging in logs directory", "path", path)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		p, err := intOtel.New(ctx, otelCfg, out, Version)
		if err != nil {
			a.Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			a.otel = p
			a.Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, w, err := logging.NewGraylogHandler(gl.Address, level)
		if err != nil {
			a.Logger.Error("Failed to connect to Graylog", "address", gl.Address, "error", err)
		} else {
			a.gelf = w
			extra = append(extra, h)
		}
	}

	a.SlogManager.SetContextProvider(func() []slog.Attr {
		run, ok := a.Mission.GetRun()
		if !ok {
			return nil
		}
		return []slog.Attr{slog.String("runId", run.RunID)}
	})

	var provider *sdklog.LoggerProvider
	if a.otel != nil {
		provider = a.otel.LoggerProvider()
	}
	a.SlogManager.Setup(out, level, provider, extra...)
	a.Logger = a.SlogManager.Logger()
	a.Logger.Info("Starting up", "app", AppName, "version", Version, "build", BuildDate, "command", component)
	return a, nil
}

// zlog returns the zerolog logger used by the influx and database
// managers, writing to the same destination as slog.
func (a *app) zlog(component string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if a.logFile != nil {
		w = a.logFile
	}
	return logging.NewZerolog(w, viper.GetString("logLevel"), component)
}

// Close flushes and releases the logging stack.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.SlogManager.Flush(ctx); err != nil {
		a.Logger.Warn("Failed to flush logs", "error", err)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if a.gelf != nil {
		_ = a.gelf.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// newEngine builds the engine from the configured vehicle and phase table.
func newEngine() (*flight.Guarded, error) {
	phases, err := config.GetPhases()
	if err != nil {
		return nil, err
	}
	e, err := flight.New(config.GetVehicleConfig(), phases)
	if err != nil {
		return nil, err
	}
	if speed := config.GetSimulationConfig().InitialSpeed; speed > 0 {
		e.SetSimulationSpeed(speed)
	}
	return flight.NewGuarded(e), nil
}

// launchProjector places the simulation frame at the launch site.
func launchProjector() geo.Projector {
	return geo.Projector{
		Latitude:     mission.LaunchSite.Latitude,
		Longitude:    mission.LaunchSite.Longitude,
		GroundOffset: flight.GroundOffset,
	}
}
