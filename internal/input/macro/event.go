package macro

import (
	"errors"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
)

// ErrNoFocus is returned by a Dispatcher when no element has focus.
var ErrNoFocus = errors.New("no focused element")

// Phase is the kind of a synthesized key event.
type Phase uint8

const (
	// PhaseDown is a keydown event.
	PhaseDown Phase = iota
	// PhasePress is a keypress event.
	PhasePress
	// PhaseUp is a keyup event.
	PhaseUp
)

// Phases lists the phases of one replayed chord in dispatch order.
var Phases = [...]Phase{PhaseDown, PhasePress, PhaseUp}

// String returns the DOM event type name.
func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "keydown"
	case PhasePress:
		return "keypress"
	case PhaseUp:
		return "keyup"
	default:
		return "unknown"
	}
}

// Event is a synthesized key event.
type Event struct {
	// Phase is the event type.
	Phase Phase

	// Record carries the key fields of the event.
	Record key.Record

	// Synthetic is true for replayed events. Hosts deliver them as
	// untrusted, bubbling and cancelable.
	Synthetic bool
}

// Dispatcher delivers synthesized events to a host document.
type Dispatcher interface {
	// DispatchDocument delivers the event to the document.
	DispatchDocument(ev Event) error

	// DispatchFocused delivers the event to the focused element. It
	// returns ErrNoFocus when nothing has focus.
	DispatchFocused(ev Event) error
}
