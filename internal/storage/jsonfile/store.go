// Package jsonfile implements a sync store persisted as one JSON document
// on disk.
//
// Every key is a top-level member of the document. Writes replace the
// file atomically. The file is watched so a write by another process
// publishes a reload of the whole store. Observers run on the store's
// notification goroutine, in publish order.
package jsonfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/storage"
)

// DefaultDebounce is how long file events are coalesced before the file
// is re-read.
const DefaultDebounce = 50 * time.Millisecond

// notifyQueue is the number of changes that may wait for delivery.
const notifyQueue = 64

// Store is a file-backed storage.SyncStore.
type Store struct {
	path      string
	namespace string
	debounce  time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	doc    []byte
	closed bool

	notifier *notify.Notifier
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets how long file events are coalesced.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens the document at path, creating its directory if needed.
// A missing file reads as an empty document. When watch is true the file
// is watched for writes by other processes.
func Open(path string, watch bool, opts ...Option) (*Store, error) {
	s := &Store{
		path:      path,
		namespace: notify.NamespaceSync,
		debounce:  DefaultDebounce,
		notifier:  notify.New(notify.WithAsync(notifyQueue)),
		closeCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.WithComponent(nil, "store")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	s.doc = doc

	if watch {
		if err := s.startWatch(); err != nil {
			s.notifier.Close()
			return nil, err
		}
	}
	return s, nil
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the raw JSON value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, storage.ErrClosed
	}
	v, ok := lookup(s.doc, key)
	return v, ok, nil
}

// Set stores a raw JSON value under key and writes the document.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !gjson.ValidBytes(value) {
		return fmt.Errorf("set %s: value is not valid JSON", key)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return storage.ErrClosed
	}
	old, _ := lookup(s.doc, key)
	doc, err := sjson.SetRawBytes(bytes.Clone(s.doc), gjson.Escape(key), value)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := writeAtomic(s.path, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = doc
	s.mu.Unlock()

	s.notifier.NotifySet(s.namespace, key, old, bytes.Clone(value), "local")
	return nil
}

// Subscribe registers an observer for every change.
func (s *Store) Subscribe(observer notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(observer)
}

// SubscribeKey registers an observer for changes to key and for reloads.
func (s *Store) SubscribeKey(key string, observer notify.Observer) *notify.Subscription {
	return s.notifier.SubscribeKey(key, observer)
}

// Close stops watching and releases the notifier.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	close(s.closeCh)
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.wg.Wait()
	s.notifier.Close()
	return err
}

// startWatch watches the parent directory, since atomic replacement
// swaps the file's inode.
func (s *Store) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = w

	s.wg.Add(1)
	go s.watchLoop()
	return nil
}

func (s *Store) watchLoop() {
	defer s.wg.Done()
	name := filepath.Clean(s.path)

	for {
		select {
		case <-s.closeCh:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.scheduleReload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", "path", s.path, "error", err)
		}
	}
}

// scheduleReload coalesces file events into one reload.
func (s *Store) scheduleReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Reset(s.debounce)
		return
	}
	s.timer = time.AfterFunc(s.debounce, s.reload)
}

// reload re-reads the document after a file event and publishes a
// reload when it differs from the cached one. The file is read under the
// lock so content older than a concurrent local Set never replaces it.
func (s *Store) reload() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	doc, err := readDocument(s.path)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("reload failed", "path", s.path, "error", err)
		return
	}
	if bytes.Equal(doc, s.doc) {
		s.mu.Unlock()
		return
	}
	old := s.doc
	s.doc = doc
	s.mu.Unlock()

	s.notifier.Notify(notify.Change{
		Namespace: s.namespace,
		Type:      notify.ChangeReload,
		OldValue:  old,
		NewValue:  doc,
		Source:    "file",
	})
}

func lookup(doc []byte, key string) ([]byte, bool) {
	r := gjson.GetBytes(doc, gjson.Escape(key))
	if !r.Exists() {
		return nil, false
	}
	return []byte(r.Raw), true
}

// readDocument reads the file, treating a missing or empty file as an
// empty document.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []byte("{}"), nil
		}
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("read store %s: not a JSON object", path)
	}
	return data, nil
}

// writeAtomic writes data using a temporary file and rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		// Clean up temp file on failure
		os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

var _ storage.SyncStore = (*Store)(nil)
