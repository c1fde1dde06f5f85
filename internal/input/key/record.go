package key

import (
	"fmt"
	"time"
)

// DefaultStepDelay is the pause after a sequence step that carries no delay.
const DefaultStepDelay = 50 * time.Millisecond

// Record is the essential shape of a captured key press. Field names
// follow the DOM KeyboardEvent so stored data stays interchangeable with
// the browser extension.
type Record struct {
	// Key is the symbolic key name, e.g. "a", "F5", "Enter".
	Key string `json:"key" yaml:"key"`

	// Code is the physical key code, e.g. "KeyA".
	Code string `json:"code" yaml:"code"`

	// KeyCode is the legacy numeric key code.
	KeyCode int `json:"keyCode" yaml:"keyCode"`

	// Which is the legacy numeric "which" code.
	Which int `json:"which" yaml:"which"`

	CtrlKey  bool `json:"ctrlKey" yaml:"ctrlKey"`
	ShiftKey bool `json:"shiftKey" yaml:"shiftKey"`
	AltKey   bool `json:"altKey" yaml:"altKey"`
	MetaKey  bool `json:"metaKey" yaml:"metaKey"`

	// Delay is the pause in milliseconds after this record when it is a
	// sequence step. Nil means DefaultStepDelay.
	Delay *int `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// Modifiers returns the modifier flags as a bitset.
func (r Record) Modifiers() Modifier {
	var m Modifier
	if r.CtrlKey {
		m = m.With(ModCtrl)
	}
	if r.ShiftKey {
		m = m.With(ModShift)
	}
	if r.AltKey {
		m = m.With(ModAlt)
	}
	if r.MetaKey {
		m = m.With(ModMeta)
	}
	return m
}

// WithModifiers returns a copy with the modifier flags replaced by m.
func (r Record) WithModifiers(m Modifier) Record {
	r.CtrlKey = m.HasCtrl()
	r.ShiftKey = m.HasShift()
	r.AltKey = m.HasAlt()
	r.MetaKey = m.HasMeta()
	return r
}

// WithDelay returns a copy carrying the given step delay in milliseconds.
func (r Record) WithDelay(ms int) Record {
	r.Delay = &ms
	return r
}

// WithoutDelay returns a copy with the step delay removed.
func (r Record) WithoutDelay() Record {
	r.Delay = nil
	return r
}

// StepDelay returns the pause that follows this record in a sequence.
func (r Record) StepDelay() time.Duration {
	if r.Delay == nil {
		return DefaultStepDelay
	}
	return time.Duration(*r.Delay) * time.Millisecond
}

// Clone returns a copy that shares no memory with r.
func (r Record) Clone() Record {
	if r.Delay != nil {
		d := *r.Delay
		r.Delay = &d
	}
	return r
}

// Equals returns true if two records describe the same key press,
// including the step delay.
func (r Record) Equals(other Record) bool {
	if r.Key != other.Key || r.Code != other.Code ||
		r.KeyCode != other.KeyCode || r.Which != other.Which ||
		r.Modifiers() != other.Modifiers() {
		return false
	}
	if r.Delay == nil || other.Delay == nil {
		return r.Delay == nil && other.Delay == nil
	}
	return *r.Delay == *other.Delay
}

// IsZero returns true if the record was never captured.
func (r Record) IsZero() bool {
	return r.Key == ""
}

// GoString implements fmt.GoStringer for debugging.
func (r Record) GoString() string {
	return fmt.Sprintf("Record{Key: %q, Code: %q, KeyCode: %d, Modifiers: %s}",
		r.Key, r.Code, r.KeyCode, r.Modifiers())
}
