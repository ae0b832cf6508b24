package position

import (
	"time"

	"github.com/barcore/trendcore/coreerr"
)

// State is the position lifecycle state (spec §3).
type State int

const (
	Flat State = iota
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Flat:
		return "FLAT"
	case Open:
		return "OPEN"
	case Closing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// OpenParams are the fields fixed at OPEN_POSITION time.
type OpenParams struct {
	Side        Side
	EntryPrice  float64
	EntryTime   time.Time
	Size        float64
	InitialStop float64
}

// StopUpdate is the optional delta a risk-manager evaluation may apply to
// the open position, carried as a value rather than a mutable reference
// (spec design note "tagged result from risk manager"). Nil fields mean
// "no change this bar".
type StopUpdate struct {
	ActiveStop     *float64
	TrailingStop   *float64
	TrailingActive *bool
	TrailingMode   *TrailingMode
	MaxUnrealizedR *float64
}

// Machine owns the single Position for one instrument (spec §4.5, §5:
// "the position state machine is the only mutable entity per instrument,
// owned exclusively by the runner and never aliased").
type Machine struct {
	state State
	pos   *Position
}

// NewMachine returns a machine in the FLAT state.
func NewMachine() *Machine { return &Machine{state: Flat} }

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Position returns the current position, or nil when FLAT. It remains
// readable while CLOSING.
func (m *Machine) Position() *Position { return m.pos }

// Open allocates a fresh Position and transitions FLAT -> OPEN.
// OPEN_POSITION while not FLAT is a programming error and panics with a
// StateMachineViolation (spec §4.5: "fatal (indicates a bug)").
func (m *Machine) Open(p OpenParams) *Position {
	if m.state != Flat {
		panic(&coreerr.StateMachineViolation{Attempted: "OPEN_POSITION", State: m.state.String()})
	}
	if p.InitialStop >= p.EntryPrice && p.Side == Long {
		panic(&coreerr.StateMachineViolation{Attempted: "OPEN_POSITION", State: "invalid initial stop for LONG"})
	}
	pos := &Position{
		Side:        p.Side,
		EntryPrice:  p.EntryPrice,
		EntryTime:   p.EntryTime,
		Size:        p.Size,
		InitialStop: p.InitialStop,
		activeStop:  p.InitialStop,
	}
	m.pos = pos
	m.state = Open
	return pos
}

// UpdateStop applies a stop-update delta while OPEN. UPDATE_STOP while
// FLAT, or after START_CLOSE has moved the machine to CLOSING, is
// silently ignored so defensive callers are harmless (spec §4.5).
func (m *Machine) UpdateStop(u StopUpdate) {
	if m.state != Open {
		return
	}
	if u.MaxUnrealizedR != nil && *u.MaxUnrealizedR > m.pos.maxUnrealizedR {
		m.pos.maxUnrealizedR = *u.MaxUnrealizedR
	}
	if u.TrailingActive != nil && *u.TrailingActive {
		m.pos.isTrailingActive = true
	}
	if u.TrailingMode != nil {
		m.pos.trailingMode = *u.TrailingMode
	}
	if u.TrailingStop != nil {
		m.pos.setTrailingStop(*u.TrailingStop)
	}
	if u.ActiveStop != nil {
		m.pos.setActiveStop(*u.ActiveStop)
	}
}

// StartClose transitions OPEN -> CLOSING. A no-op outside OPEN.
func (m *Machine) StartClose() {
	if m.state != Open {
		return
	}
	m.state = Closing
}

// CloseNow discards the Position and transitions to FLAT from either OPEN
// or CLOSING. CLOSE_POSITION while FLAT is silently ignored.
func (m *Machine) CloseNow() {
	if m.state == Flat {
		return
	}
	m.pos = nil
	m.state = Flat
}
