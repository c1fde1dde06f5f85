package remap

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/storage"
)

// DefaultRetryInterval is the poll interval while the initial load has
// not succeeded.
const DefaultRetryInterval = 5 * time.Second

// ConfigStore holds the runtime's copy of the config.
type ConfigStore struct {
	store  storage.SyncStore
	key    string
	retry  time.Duration
	logger *slog.Logger

	cfg   atomic.Pointer[keymap.Config]
	ready atomic.Bool

	// gen counts change notifications. A load whose read began before
	// the latest notification is discarded.
	gen     atomic.Uint64
	applyMu sync.Mutex

	mu       sync.Mutex
	sub      *notify.Subscription
	stop     chan struct{}
	wg       sync.WaitGroup
	started  bool
	closed   bool
	onChange []func(*keymap.Config)
}

// StoreOption configures a ConfigStore.
type StoreOption func(*ConfigStore)

// WithRetryInterval sets the retry poll interval.
func WithRetryInterval(d time.Duration) StoreOption {
	return func(c *ConfigStore) { c.retry = d }
}

// WithStoreKey sets the key the config is stored under.
func WithStoreKey(key string) StoreOption {
	return func(c *ConfigStore) { c.key = key }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(c *ConfigStore) { c.logger = l }
}

// NewConfigStore creates a store reading from s. It does nothing until
// Start is called.
func NewConfigStore(s storage.SyncStore, opts ...StoreOption) *ConfigStore {
	c := &ConfigStore{
		store: s,
		key:   keymap.StorageKey,
		retry: DefaultRetryInterval,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.WithComponent(nil, "remap")
	}
	return c
}

// Start subscribes to change notifications and performs the initial
// load. If the load fails the error is returned and loading is retried
// in the background until it succeeds or the store is closed.
func (c *ConfigStore) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.sub = c.store.SubscribeKey(c.key, c.handleChange)
	c.mu.Unlock()

	err := c.Load(ctx)
	if err != nil {
		c.logger.Debug("initial load failed, retrying", "error", err, "interval", c.retry)
		c.wg.Add(1)
		go c.retryLoop()
	}
	return err
}

// Load reads the config from the store. On success the store becomes
// ready. A missing value loads as an empty config. A value read before a
// change notification arrived is dropped in favour of the notified one.
func (c *ConfigStore) Load(ctx context.Context) error {
	gen := c.gen.Load()
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return keymap.Wrap(keymap.KindStorage, err, "load config")
	}
	if !ok {
		raw = nil
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if c.gen.Load() != gen {
		if c.ready.Load() {
			c.logger.Debug("load superseded by a change notification")
			return nil
		}
		return keymap.Errorf(keymap.KindStorage, "load config: superseded by a change that did not apply")
	}
	c.apply(raw)
	return nil
}

// apply replaces the config with a raw stored value. A nil value or one
// that is not a config object applies an empty config. Callers hold
// applyMu.
func (c *ConfigStore) apply(raw []byte) {
	cfg := keymap.New()
	if raw != nil && string(raw) != "null" {
		loaded, report, err := keymap.Load(raw)
		if err != nil {
			c.logger.Warn("stored config unusable, remapping disabled", "error", err)
		} else {
			if report.Changed() {
				c.logger.Debug("stored config repaired on load",
					"dropped_mappings", len(report.DroppedMappings),
					"dropped_sites", len(report.InvalidSites)+len(report.DuplicateSites))
			}
			cfg = loaded
		}
	}

	c.cfg.Store(cfg)
	c.ready.Store(true)

	c.mu.Lock()
	hooks := append([]func(*keymap.Config){}, c.onChange...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(cfg)
	}
}

// Ready returns true once a config has been loaded.
func (c *ConfigStore) Ready() bool {
	return c.ready.Load()
}

// Snapshot returns the current config, or nil if not ready. The
// returned value must not be modified.
func (c *ConfigStore) Snapshot() *keymap.Config {
	if !c.ready.Load() {
		return nil
	}
	return c.cfg.Load()
}

// OnChange registers fn to run after every config replacement.
func (c *ConfigStore) OnChange(fn func(*keymap.Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// Close unsubscribes and stops the retry poll.
func (c *ConfigStore) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.stop)
	sub := c.sub
	c.mu.Unlock()

	sub.Unsubscribe()
	c.wg.Wait()
}

// handleChange applies a notified value. A whole-store reload carries no
// value for the key, so it is read back from the store.
func (c *ConfigStore) handleChange(change notify.Change) {
	if change.Namespace != notify.NamespaceSync {
		return
	}
	if change.Type == notify.ChangeReload {
		c.gen.Add(1)
		if err := c.Load(context.Background()); err != nil {
			c.logger.Debug("reload failed", "error", err)
		}
		return
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.gen.Add(1)
	c.apply(change.NewValue)
}

// retryLoop polls until the store is ready.
func (c *ConfigStore) retryLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.retry)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if c.ready.Load() {
				return
			}
			if err := c.Load(context.Background()); err != nil {
				c.logger.Debug("retry load failed", "error", err)
				continue
			}
			return
		}
	}
}
