package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/dispatcher"
	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/internal/handlers"
	"github.com/flightlab/boostersim/internal/metrics"
	"github.com/flightlab/boostersim/internal/mission"
	"github.com/flightlab/boostersim/internal/storage"
)

// ServiceName is reported by /health.
const ServiceName = "Booster Flight Simulation API"

// Response is the JSON envelope for every /api route.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ServerDeps wires the server to the running simulation.
type ServerDeps struct {
	Dispatcher *dispatcher.Dispatcher
	Engine     *flight.Guarded
	Metrics    *metrics.Collector // optional
	Flights    storage.Reader     // optional
	Logger     *slog.Logger
	Config     config.ServerConfig
}

// Server serves the simulation over HTTP.
type Server struct {
	deps    ServerDeps
	limiter *IPRateLimiter
	router  chi.Router
}

// NewServer builds the router. Mutating commands are rate limited per client.
func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	limit := rate.Inf
	if deps.Config.CommandRate > 0 {
		limit = rate.Limit(deps.Config.CommandRate)
	}
	s := &Server{
		deps:    deps,
		limiter: NewIPRateLimiter(limit, deps.Config.CommandBurst),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": ServiceName})
	})
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/telemetry", s.query(handlers.CmdTelemetry))
		r.Get("/trajectory", s.query(handlers.CmdTrajectory))
		r.Get("/phases", s.query(handlers.CmdPhases))
		r.Get("/simulation-status", s.query(handlers.CmdStatus))
		r.Get("/vehicle", s.handleVehicle)
		r.Get("/booster-config", s.handleVehicle)
		r.Get("/mission-parameters", s.handleMissionParameters)
		r.Post("/commands/{command}", s.handleCommand)
		r.Get("/flights", s.handleListFlights)
		r.Get("/flights/{runID}", s.handleGetFlight)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.deps.Config.Address,
		Handler:      s.router,
		ReadTimeout:  s.deps.Config.ReadTimeout,
		WriteTimeout: s.deps.Config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("HTTP API listening", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe records request metrics against the matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if s.deps.Metrics == nil {
			return
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.deps.Metrics.RecordRequest(route, r.Method, status, time.Since(start))
	})
}

func (s *Server) query(command string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{Command: command, Source: "http"})
		if err != nil {
			writeDispatchError(w, err)
			return
		}
		writeData(w, data)
	}
}

func (s *Server) handleVehicle(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.deps.Engine.Vehicle())
}

func (s *Server) handleMissionParameters(w http.ResponseWriter, r *http.Request) {
	writeData(w, mission.NewParameters(s.deps.Engine.Vehicle(), s.deps.Engine.Phases()))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	command := chi.URLParam(r, "command")
	ev := dispatcher.Event{Command: command, Source: "http"}
	if v := r.URL.Query().Get("value"); v != "" {
		ev.Args = []string{v}
	}

	data, err := s.deps.Dispatcher.Dispatch(ev)
	if err != nil {
		s.recordCommand(command, "error")
		writeDispatchError(w, err)
		return
	}
	if res, ok := data.(handlers.CommandResult); ok {
		outcome := "applied"
		if res.Reason != "" {
			outcome = res.Reason
		}
		s.recordCommand(command, outcome)
	}
	writeData(w, data)
}

func (s *Server) recordCommand(command, outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordCommand(command, outcome)
	}
}

func (s *Server) handleListFlights(w http.ResponseWriter, r *http.Request) {
	if s.deps.Flights == nil {
		writeError(w, http.StatusNotImplemented, "storage backend does not support reading flights")
		return
	}
	runs, err := s.deps.Flights.ListFlights()
	if err != nil {
		s.deps.Logger.Error("list flights failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, runs)
}

func (s *Server) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	if s.deps.Flights == nil {
		writeError(w, http.StatusNotImplemented, "storage backend does not support reading flights")
		return
	}
	f, err := s.deps.Flights.LoadFlight(chi.URLParam(r, "runID"))
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.deps.Logger.Error("load flight failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, f)
}

func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatcher.ErrUnknownCommand):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, handlers.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatcher.ErrQueueFull), errors.Is(err, dispatcher.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP strips the port from RemoteAddr; RealIP has already applied
// X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
