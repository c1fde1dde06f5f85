package keymap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
)

// Mapping is the value stored under a source identity.
// A mapping with Steps is a sequence; otherwise Target is the single
// replacement chord.
type Mapping struct {
	// Target is the replacement chord of a single substitution.
	Target key.Record

	// Steps are the chords of a sequence mapping, replayed in order.
	Steps []key.Record
}

// Single creates a single-substitution mapping.
func Single(target key.Record) Mapping {
	return Mapping{Target: target.Clone()}
}

// Sequence creates a sequence mapping from the given steps.
func Sequence(steps ...key.Record) Mapping {
	m := Mapping{Steps: make([]key.Record, len(steps))}
	for i, s := range steps {
		m.Steps[i] = s.Clone()
	}
	return m
}

// IsSequence returns true if the mapping replays a sequence.
func (m Mapping) IsSequence() bool {
	return m.Steps != nil
}

// Records returns the chords replayed by this mapping, in order.
func (m Mapping) Records() []key.Record {
	if m.IsSequence() {
		return m.Steps
	}
	return []key.Record{m.Target}
}

// IsValid returns true if the mapping has something to replay.
func (m Mapping) IsValid() bool {
	if m.IsSequence() {
		if len(m.Steps) == 0 {
			return false
		}
		for _, s := range m.Steps {
			if s.IsZero() || (s.Delay != nil && *s.Delay < 0) {
				return false
			}
		}
		return true
	}
	return !m.Target.IsZero()
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	if m.IsSequence() {
		return Sequence(m.Steps...)
	}
	return Single(m.Target)
}

// Equals returns true if two mappings replay the same chords.
func (m Mapping) Equals(other Mapping) bool {
	if m.IsSequence() != other.IsSequence() {
		return false
	}
	if !m.IsSequence() {
		return m.Target.Equals(other.Target)
	}
	if len(m.Steps) != len(other.Steps) {
		return false
	}
	for i := range m.Steps {
		if !m.Steps[i].Equals(other.Steps[i]) {
			return false
		}
	}
	return true
}

// Describe returns a human-readable rendering of the target side,
// e.g. "A" or "[1. G → 2. I]".
func (m Mapping) Describe(p key.Platform) string {
	if !m.IsSequence() {
		return key.Identify(p, m.Target)
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range m.Steps {
		if i > 0 {
			sb.WriteString(" → ")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, key.Identify(p, s))
	}
	sb.WriteByte(']')
	return sb.String()
}

// MarshalJSON encodes a single mapping as an object and a sequence as an
// array.
func (m Mapping) MarshalJSON() ([]byte, error) {
	if m.IsSequence() {
		return json.Marshal(m.Steps)
	}
	return json.Marshal(m.Target)
}

// UnmarshalJSON decodes an object as a single mapping and an array as a
// sequence.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty mapping")
	}
	switch data[0] {
	case '[':
		var steps []key.Record
		if err := json.Unmarshal(data, &steps); err != nil {
			return err
		}
		if steps == nil {
			steps = []key.Record{}
		}
		*m = Mapping{Steps: steps}
	case '{':
		var target key.Record
		if err := json.Unmarshal(data, &target); err != nil {
			return err
		}
		*m = Mapping{Target: target}
	default:
		return fmt.Errorf("mapping must be an object or an array")
	}
	return nil
}

// Table maps source identities to mappings.
type Table map[string]Mapping

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, m := range t {
		out[id] = m.Clone()
	}
	return out
}

// Equals returns true if both tables hold equal mappings under the same
// identities.
func (t Table) Equals(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for id, m := range t {
		o, ok := other[id]
		if !ok || !m.Equals(o) {
			return false
		}
	}
	return true
}
