package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/dispatcher"
	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/internal/handlers"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/metrics"
	"github.com/flightlab/boostersim/internal/storage/memory"
	"github.com/flightlab/boostersim/pkg/core"
)

type testEnv struct {
	engine  *flight.Guarded
	backend *memory.Backend
	srv     *httptest.Server
}

func newTestEnv(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()
	engine := flight.NewGuarded(flight.NewDefault())
	d, err := dispatcher.New(logging.NewDispatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	handlers.NewService(engine).RegisterHandlers(d)

	backend := memory.New(config.MemoryConfig{}, geo.Projector{})
	require.NoError(t, backend.Init())

	s := NewServer(ServerDeps{
		Dispatcher: d,
		Engine:     engine,
		Metrics:    metrics.NewCollector(engine, nil),
		Flights:    backend,
		Config:     cfg,
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{engine: engine, backend: backend, srv: srv}
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func get(t *testing.T, env *testEnv, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(env.srv.URL + path)
	require.NoError(t, err)
	return resp.StatusCode, decode(t, resp)
}

func post(t *testing.T, env *testEnv, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(env.srv.URL+path, "application/json", nil)
	require.NoError(t, err)
	return resp.StatusCode, decode(t, resp)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	code, body := get(t, env, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, ServiceName, body["service"])
}

func TestQueryRoutes(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	tests := []struct {
		path  string
		check func(t *testing.T, data any)
	}{
		{"/api/telemetry", func(t *testing.T, data any) {
			m := data.(map[string]any)
			assert.Equal(t, "Pre-Launch", m["phase"])
			assert.Equal(t, 100.0, m["fuelPercent"])
		}},
		{"/api/trajectory", func(t *testing.T, data any) {
			assert.Empty(t, data)
		}},
		{"/api/phases", func(t *testing.T, data any) {
			assert.Len(t, data, 10)
		}},
		{"/api/simulation-status", func(t *testing.T, data any) {
			m := data.(map[string]any)
			assert.Equal(t, false, m["running"])
			assert.Equal(t, "T+00:00", m["missionClock"])
		}},
		{"/api/vehicle", func(t *testing.T, data any) {
			m := data.(map[string]any)
			assert.Equal(t, 9.0, m["engines"])
		}},
		{"/api/booster-config", func(t *testing.T, data any) {
			m := data.(map[string]any)
			assert.Equal(t, 9.0, m["engines"])
			assert.Equal(t, 25400.0, m["dryMass"])
		}},
		{"/api/mission-parameters", func(t *testing.T, data any) {
			m := data.(map[string]any)
			site := m["launchSite"].(map[string]any)
			assert.Equal(t, 28.5729, site["latitude"])
			constraints := m["constraints"].(map[string]any)
			assert.Equal(t, 50000.0, constraints["maxDynamicPressure"])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := get(t, env, tt.path)
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, true, body["success"])
			tt.check(t, body["data"])
		})
	}
}

func TestCommands(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	code, body := post(t, env, "/api/commands/start")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["applied"])
	assert.True(t, env.engine.State().Running)

	code, body = post(t, env, "/api/commands/speed?value=50")
	require.Equal(t, http.StatusOK, code)
	data = body["data"].(map[string]any)
	assert.Equal(t, "clamped", data["reason"])
	assert.Equal(t, 10.0, env.engine.State().Speed)

	code, body = post(t, env, "/api/commands/jump?value=99")
	require.Equal(t, http.StatusOK, code)
	data = body["data"].(map[string]any)
	assert.Equal(t, false, data["applied"])

	code, body = post(t, env, "/api/commands/jump?value=two")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, body = post(t, env, "/api/commands/launch-nukes")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "unknown command")
}

func TestCommandRateLimit(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{CommandRate: 0.001, CommandBurst: 2})

	code, _ := post(t, env, "/api/commands/pause")
	assert.Equal(t, http.StatusOK, code)
	code, _ = post(t, env, "/api/commands/pause")
	assert.Equal(t, http.StatusOK, code)
	code, body := post(t, env, "/api/commands/pause")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, false, body["success"])

	// Queries are not limited.
	code, _ = get(t, env, "/api/telemetry")
	assert.Equal(t, http.StatusOK, code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	code, body := get(t, env, "/api/does-not-exist")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Endpoint not found", body["error"])

	code, body = get(t, env, "/api/commands/start")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, false, body["success"])
}

func TestFlights(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	run := &core.FlightRun{RunID: "run-42", Name: "Demo", StartTime: time.Now()}
	require.NoError(t, env.backend.StartFlight(run))
	require.NoError(t, env.backend.RecordTelemetry(&core.TelemetryRecord{RunID: "run-42", Frame: 0}))

	code, body := get(t, env, "/api/flights")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, body = get(t, env, "/api/flights/run-42")
	require.Equal(t, http.StatusOK, code)
	stored := body["data"].(map[string]any)
	assert.Len(t, stored["Telemetry"], 1)

	code, _ = get(t, env, "/api/flights/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	post(t, env, "/api/commands/start")
	get(t, env, "/api/telemetry")

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `boostersim_commands_total{command="start",outcome="applied"} 1`)
	assert.True(t, strings.Contains(text, `route="/api/telemetry"`))
}
