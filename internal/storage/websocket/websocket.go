package websocket

import (
	"log/slog"
	"time"

	"github.com/flightlab/boostersim/internal/cache"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"
	"github.com/flightlab/boostersim/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams flights to a remote collector. Start and end of a flight
// wait for an ack; samples and phase events are fire-and-forget.
// It implements storage.Backend and storage.QueueReporter.
type Backend struct {
	conn   *connection
	cfg    Config
	active *cache.RunCache
}

// New creates a WebSocket backend. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn:   newConnection(logger.With("backend", "websocket")),
		cfg:    cfg,
		active: cache.NewRunCache(),
	}
}

// Init connects to the collector.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the collector.
func (b *Backend) Close() error {
	return b.conn.close()
}

// StartFlight announces run and waits for the collector's ack.
func (b *Backend) StartFlight(run *core.FlightRun) error {
	data, err := streaming.Encode(streaming.TypeStartFlight, streaming.StartFlightPayload{Run: run})
	if err != nil {
		return err
	}
	b.conn.setStartFlight(data)

	b.active.Open(run.RunID, run.ID)

	return b.conn.sendAndWait(data, streaming.TypeStartFlight, ackTimeout)
}

// EndFlight closes run and waits for the ack. The replay cache is cleared
// even when the ack never arrives.
func (b *Backend) EndFlight(run *core.FlightRun) error {
	end := run.EndTime
	if end.IsZero() {
		end = time.Now().UTC()
	}
	data, err := streaming.Encode(streaming.TypeEndFlight, streaming.EndFlightPayload{
		RunID:   run.RunID,
		Outcome: run.Outcome,
		EndTime: end,
	})
	if err != nil {
		return err
	}

	b.active.Close(run.RunID)

	err = b.conn.sendAndWait(data, streaming.TypeEndFlight, ackTimeout)
	b.conn.setStartFlight(nil)
	return err
}

func (b *Backend) RecordTelemetry(rec *core.TelemetryRecord) error {
	if err := b.checkActive(rec.RunID); err != nil {
		return err
	}
	return b.sendEnvelope(streaming.TypeTelemetry, rec)
}

func (b *Backend) RecordPhaseEvent(ev *core.PhaseEvent) error {
	if err := b.checkActive(ev.RunID); err != nil {
		return err
	}
	return b.sendEnvelope(streaming.TypePhaseEvent, ev)
}

// QueueLengths reports the pending outbound messages.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{"websocket_send": len(b.conn.sendCh)}
}

// Dropped returns the number of messages discarded because the queue was
// full or the socket was down.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

func (b *Backend) checkActive(runID string) error {
	if !b.active.Has(runID) {
		return storage.ErrNoActiveRun
	}
	return nil
}

func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := streaming.Encode(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}
