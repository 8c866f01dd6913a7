// Package metrics exposes simulator and recorder state to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/recorder"
)

const namespace = "boostersim"

// StatsProvider is satisfied by *recorder.Recorder.
type StatsProvider interface {
	Stats() recorder.Stats
}

// Collector owns a private registry so tests and multiple servers don't
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
}

// NewCollector registers request and command metrics plus gauges that read
// the engine on every scrape. rec may be nil.
func NewCollector(engine *flight.Guarded, rec StatsProvider) *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time spent serving API requests",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"route", "method"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total API requests by route and status",
			},
			[]string{"route", "method", "status"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Engine commands by name and outcome",
			},
			[]string{"command", "outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.requestsTotal,
		m.commandsTotal,
	)
	if engine != nil {
		m.registerEngine(engine)
	}
	if rec != nil {
		m.registerRecorder(rec)
	}
	return m
}

func (m *Collector) registerEngine(engine *flight.Guarded) {
	gauge := func(name, help string, fn func(flight.State) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      name,
			Help:      help,
		}, func() float64 { return fn(engine.State()) })
	}
	m.registry.MustRegister(
		gauge("sim_time_seconds", "Simulated mission time", func(s flight.State) float64 { return s.SimTime }),
		gauge("altitude_meters", "Height above ground", func(s flight.State) float64 { return s.Position.Y - flight.GroundOffset }),
		gauge("speed_meters_per_second", "Velocity magnitude", func(s flight.State) float64 { return s.Velocity.Length() }),
		gauge("fuel_kilograms", "Remaining propellant", func(s flight.State) float64 { return s.FuelRemaining }),
		gauge("phase_index", "Active mission phase", func(s flight.State) float64 { return float64(s.PhaseIndex) }),
		gauge("speed_multiplier", "Simulation speed multiplier", func(s flight.State) float64 { return s.Speed }),
		gauge("running", "1 while the simulation is ticking", func(s flight.State) float64 { return boolFloat(s.Running) }),
		gauge("landed", "1 after touchdown", func(s flight.State) float64 { return boolFloat(s.Landed) }),
	)
}

func (m *Collector) registerRecorder(rec StatsProvider) {
	counter := func(name, help string, fn func(recorder.Stats) uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn(rec.Stats())) })
	}
	m.registry.MustRegister(
		counter("captures_total", "Telemetry samples recorded", func(s recorder.Stats) uint64 { return s.Captures }),
		counter("phase_events_total", "Phase events recorded", func(s recorder.Stats) uint64 { return s.PhaseEvents }),
		counter("errors_total", "Backend write failures", func(s recorder.Stats) uint64 { return s.Errors }),
		counter("dropped_events_total", "Engine events dropped before sampling", func(s recorder.Stats) uint64 { return s.Dropped }),
	)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RecordRequest observes one served API request.
func (m *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// RecordCommand counts a dispatched engine command. outcome is "applied",
// a flight.Reason, or "error".
func (m *Collector) RecordCommand(command, outcome string) {
	m.commandsTotal.WithLabelValues(command, outcome).Inc()
}

// Registry exposes the private registry.
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
