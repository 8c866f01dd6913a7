package flight

import "errors"

var (
	ErrNotRunning      = errors.New("simulation is not running")
	ErrPhaseOutOfRange = errors.New("phase index out of range")
	ErrNonFinite       = errors.New("non-finite input")
	ErrLanded          = errors.New("booster has landed; reset or jump first")
	ErrEmptyPhaseTable = errors.New("phase table is empty")
	ErrInvalidPhase    = errors.New("invalid mission phase")
	ErrInvalidVehicle  = errors.New("invalid vehicle specification")
)

// Reason explains why a command was ignored or adjusted.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotRunning
	ReasonPhaseOutOfRange
	ReasonClamped
	ReasonNonFinite
	ReasonLanded
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotRunning:
		return "not_running"
	case ReasonPhaseOutOfRange:
		return "phase_out_of_range"
	case ReasonClamped:
		return "clamped"
	case ReasonNonFinite:
		return "non_finite"
	case ReasonLanded:
		return "landed"
	}
	return "unknown"
}

// Result reports the outcome of a command. Commands never fail loudly:
// Applied is false when the command was a no-op, and Reason says why.
// A clamped command is still applied.
type Result struct {
	Applied bool
	Reason  Reason
}

func applied() Result         { return Result{Applied: true} }
func ignored(r Reason) Result { return Result{Reason: r} }

// Err converts an ignored Result into its sentinel error. Applied results return nil.
func (r Result) Err() error {
	if r.Applied {
		return nil
	}
	switch r.Reason {
	case ReasonNotRunning:
		return ErrNotRunning
	case ReasonPhaseOutOfRange:
		return ErrPhaseOutOfRange
	case ReasonNonFinite:
		return ErrNonFinite
	case ReasonLanded:
		return ErrLanded
	}
	return nil
}
