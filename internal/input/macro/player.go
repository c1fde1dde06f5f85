package macro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
)

// DefaultEventGap is the pause after each synthesized event.
const DefaultEventGap = 10 * time.Millisecond

// ErrAlreadyPlaying is returned when a replay is requested while another
// one is in flight.
var ErrAlreadyPlaying = errors.New("already playing a replay")

// Player replays mappings through a Dispatcher.
type Player struct {
	dispatcher Dispatcher
	gap        time.Duration
	stepDelay  time.Duration

	playing atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Player.
type Option func(*Player)

// WithEventGap sets the pause after each synthesized event.
func WithEventGap(d time.Duration) Option {
	return func(p *Player) { p.gap = d }
}

// WithDefaultStepDelay sets the pause after a sequence step that carries
// no delay of its own.
func WithDefaultStepDelay(d time.Duration) Option {
	return func(p *Player) { p.stepDelay = d }
}

// NewPlayer creates a player dispatching through d.
func NewPlayer(d Dispatcher, opts ...Option) *Player {
	p := &Player{
		dispatcher: d,
		gap:        DefaultEventGap,
		stepDelay:  key.DefaultStepDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play replays m synchronously. It returns ErrAlreadyPlaying if another
// replay is in flight and stops at the first document dispatch error.
func (p *Player) Play(ctx context.Context, m keymap.Mapping) error {
	if !p.playing.CompareAndSwap(false, true) {
		return ErrAlreadyPlaying
	}
	defer p.playing.Store(false)
	return p.replay(ctx, m)
}

// PlayAsync replays m on its own goroutine and returns immediately.
// The done callback, if not nil, receives the replay result. Setup
// errors, including ErrAlreadyPlaying, are returned directly.
func (p *Player) PlayAsync(ctx context.Context, m keymap.Mapping, done func(error)) error {
	if !p.playing.CompareAndSwap(false, true) {
		return ErrAlreadyPlaying
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.replay(ctx, m)
		p.playing.Store(false)
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// IsPlaying returns true if a replay is in flight.
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// Wait blocks until all replays started with PlayAsync have finished.
func (p *Player) Wait() {
	p.wg.Wait()
}

func (p *Player) replay(ctx context.Context, m keymap.Mapping) error {
	if !m.IsSequence() {
		return p.chord(ctx, m.Target)
	}
	for i, step := range m.Steps {
		if err := p.chord(ctx, step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		delay := p.stepDelay
		if step.Delay != nil {
			delay = step.StepDelay()
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// chord dispatches the down, press and up events of one record.
func (p *Player) chord(ctx context.Context, r key.Record) error {
	for _, phase := range Phases {
		ev := Event{Phase: phase, Record: r, Synthetic: true}
		if err := p.dispatcher.DispatchDocument(ev); err != nil {
			return fmt.Errorf("dispatch %s: %w", phase, err)
		}
		// Focused delivery is best-effort.
		_ = p.dispatcher.DispatchFocused(ev)

		if err := sleep(ctx, p.gap); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
