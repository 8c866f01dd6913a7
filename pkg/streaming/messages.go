// Package streaming defines the wire protocol used to stream a flight to a
// remote collector over WebSocket.
package streaming

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/flightlab/boostersim/pkg/core"
)

// Message types.
const (
	TypeStartFlight = "start_flight"
	TypeEndFlight   = "end_flight"
	TypeTelemetry   = "telemetry"
	TypePhaseEvent  = "phase_event"
)

// Envelope wraps every message sent over the socket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the collector's acknowledgement.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`
}

// StartFlightPayload announces a new flight.
type StartFlightPayload struct {
	Run *core.FlightRun `json:"run"`
}

// EndFlightPayload closes a flight.
type EndFlightPayload struct {
	RunID   string    `json:"runId"`
	Outcome string    `json:"outcome"`
	EndTime time.Time `json:"endTime"`
}

// Encode builds a JSON envelope for msgType around payload.
func Encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Decode parses an envelope. The payload is left raw.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}
