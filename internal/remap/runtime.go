package remap

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
	"github.com/Aimarl0/keymap-extension/internal/input/macro"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/storage"
)

// KeyEvent is a key press delivered by the host during capture.
type KeyEvent interface {
	// Record returns the key fields of the press.
	Record() key.Record

	// Synthetic reports whether the event was dispatched by a replay
	// rather than produced by the user.
	Synthetic() bool

	// PreventDefault cancels the host's default action.
	PreventDefault()

	// StopImmediatePropagation hides the event from every later listener.
	StopImmediatePropagation()
}

// Document is the host page the runtime is attached to.
type Document interface {
	macro.Dispatcher

	// Hostname returns the hostname of the current page.
	Hostname() string

	// AddKeyListener registers a capture-phase keydown listener and
	// returns a function that removes it.
	AddKeyListener(fn func(KeyEvent)) (remove func())
}

// Runtime remaps key presses on a Document.
type Runtime struct {
	doc      Document
	store    *ConfigStore
	player   *macro.Player
	platform key.Platform
	logger   *slog.Logger

	mu     sync.Mutex
	remove func()
}

// Option configures a Runtime.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	platform     key.Platform
	platformSet  bool
	eventGap     time.Duration
	stepDelay    time.Duration
	logger       *slog.Logger
	storeOptions []StoreOption
}

// WithPlatform sets the platform used to name modifiers.
func WithPlatform(p key.Platform) Option {
	return func(o *runtimeOptions) { o.platform, o.platformSet = p, true }
}

// WithEventGap sets the pause after each synthesized event.
func WithEventGap(d time.Duration) Option {
	return func(o *runtimeOptions) { o.eventGap = d }
}

// WithDefaultStepDelay sets the pause after sequence steps without a
// delay of their own.
func WithDefaultStepDelay(d time.Duration) Option {
	return func(o *runtimeOptions) { o.stepDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *runtimeOptions) { o.logger = l }
}

// WithStoreOptions passes options to the runtime's ConfigStore.
func WithStoreOptions(opts ...StoreOption) Option {
	return func(o *runtimeOptions) { o.storeOptions = append(o.storeOptions, opts...) }
}

// New creates a runtime for doc reading its config from s.
func New(doc Document, s storage.SyncStore, opts ...Option) *Runtime {
	o := runtimeOptions{
		eventGap:  macro.DefaultEventGap,
		stepDelay: key.DefaultStepDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.platformSet {
		o.platform = key.DetectPlatform()
	}
	if o.logger == nil {
		o.logger = logging.WithComponent(nil, "remap")
	}

	storeOpts := append([]StoreOption{WithStoreLogger(o.logger)}, o.storeOptions...)
	return &Runtime{
		doc:      doc,
		store:    NewConfigStore(s, storeOpts...),
		player:   macro.NewPlayer(doc, macro.WithEventGap(o.eventGap), macro.WithDefaultStepDelay(o.stepDelay)),
		platform: o.platform,
		logger:   o.logger,
	}
}

// Store returns the runtime's config store.
func (r *Runtime) Store() *ConfigStore {
	return r.store
}

// Start attaches the key listener and loads the config. A load error is
// returned for information only: the runtime stays attached, remapping
// stays disabled and loading is retried in the background.
func (r *Runtime) Start(ctx context.Context) error {
	r.Attach()
	return r.store.Start(ctx)
}

// Attach registers the key listener. Repeated calls register it once.
func (r *Runtime) Attach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remove != nil {
		return
	}
	r.remove = r.doc.AddKeyListener(func(ev KeyEvent) { r.HandleKey(ev) })
}

// Close detaches the listener and stops the config store. Replays in
// flight run to completion; use Wait to block until they finish.
func (r *Runtime) Close() {
	r.mu.Lock()
	remove := r.remove
	r.remove = nil
	r.mu.Unlock()

	if remove != nil {
		remove()
	}
	r.store.Close()
}

// Wait blocks until in-flight replays have finished.
func (r *Runtime) Wait() {
	r.player.Wait()
}

// Replaying returns true while a replay is in flight.
func (r *Runtime) Replaying() bool {
	return r.player.IsPlaying()
}

// HandleKey processes one key press and reports whether it was
// remapped. A remapped press is suppressed before its replay starts.
func (r *Runtime) HandleKey(ev KeyEvent) bool {
	if ev.Synthetic() {
		return false
	}
	cfg := r.store.Snapshot()
	if cfg == nil || !keymap.IsActive(cfg, r.doc.Hostname()) {
		return false
	}

	id := key.Identify(r.platform, ev.Record())
	m, ok := cfg.Lookup(id)
	if !ok {
		return false
	}

	ev.PreventDefault()
	ev.StopImmediatePropagation()

	err := r.player.PlayAsync(context.Background(), m, func(err error) {
		if err != nil {
			r.logger.Debug("replay aborted", "identity", id, "error", err)
		}
	})
	if errors.Is(err, macro.ErrAlreadyPlaying) {
		r.logger.Debug("replay dropped while another is in flight", "identity", id)
	}
	return true
}
