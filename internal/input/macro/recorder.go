package macro

import (
	"fmt"
	"sync"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
)

// Recorder accumulates the steps of a sequence before it is committed.
type Recorder struct {
	mu    sync.Mutex
	steps []key.Record
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends a step. A nil delay on the record means the default
// step delay applies at replay time.
func (r *Recorder) Record(step key.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step.Clone())
}

// Remove deletes the step at index i.
func (r *Recorder) Remove(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.steps) {
		return fmt.Errorf("step %d out of range (have %d)", i+1, len(r.steps))
	}
	r.steps = append(r.steps[:i], r.steps[i+1:]...)
	return nil
}

// Clear discards all steps.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = nil
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Steps returns a copy of the recorded steps.
func (r *Recorder) Steps() []key.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]key.Record, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.Clone()
	}
	return out
}

// Take returns the recorded steps as a sequence mapping and clears the
// recorder. It fails when nothing was recorded.
func (r *Recorder) Take() (keymap.Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.steps) == 0 {
		return keymap.Mapping{}, keymap.Errorf(keymap.KindInvalidMapping, "sequence has no steps")
	}
	m := keymap.Sequence(r.steps...)
	r.steps = nil
	return m, nil
}
