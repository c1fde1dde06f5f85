package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
)

// Memory is an in-memory store. It satisfies both SyncStore and
// BackupStore and can be told to fail for recovery testing.
type Memory struct {
	mu        sync.Mutex
	namespace string
	values    map[string][]byte
	notifier  *notify.Notifier

	getErr   error
	getFails int
	setErr   error
	setFails int
	sets     int
}

// NewMemory creates an empty store publishing changes under namespace.
func NewMemory(namespace string) *Memory {
	return &Memory{
		namespace: namespace,
		values:    make(map[string][]byte),
		notifier:  notify.New(),
	}
}

// Get returns the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := consume(&m.getErr, &m.getFails); err != nil {
		return nil, false, err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores value under key and notifies subscribers.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := consume(&m.setErr, &m.setFails); err != nil {
		m.mu.Unlock()
		return err
	}
	old := m.values[key]
	m.values[key] = bytes.Clone(value)
	m.sets++
	m.mu.Unlock()

	m.notifier.NotifySet(m.namespace, key, old, bytes.Clone(value), "memory")
	return nil
}

// Delete removes key and notifies subscribers.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	old, ok := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()

	if ok {
		m.notifier.NotifyDelete(m.namespace, key, old, "memory")
	}
	return nil
}

// Load implements BackupStore.
func (m *Memory) Load(ctx context.Context, key string) ([]byte, bool, error) {
	return m.Get(ctx, key)
}

// Save implements BackupStore.
func (m *Memory) Save(ctx context.Context, key string, value []byte) error {
	return m.Set(ctx, key, value)
}

// Subscribe registers an observer for every change.
func (m *Memory) Subscribe(observer notify.Observer) *notify.Subscription {
	return m.notifier.Subscribe(observer)
}

// SubscribeKey registers an observer for changes to key and for reloads.
func (m *Memory) SubscribeKey(key string, observer notify.Observer) *notify.Subscription {
	return m.notifier.SubscribeKey(key, observer)
}

// Publish delivers a change as if another writer had made it. The
// stored value is updated to match.
func (m *Memory) Publish(change notify.Change) {
	m.mu.Lock()
	if change.Key != "" && change.Namespace == m.namespace {
		if change.NewValue == nil {
			delete(m.values, change.Key)
		} else {
			m.values[change.Key] = bytes.Clone(change.NewValue)
		}
	}
	m.mu.Unlock()
	m.notifier.Notify(change)
}

// FailGets makes the next n reads fail with err. A negative n fails
// every read until reset with FailGets(nil, 0).
func (m *Memory) FailGets(err error, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr, m.getFails = err, n
}

// FailSets makes the next n writes fail with err. A negative n fails
// every write until reset with FailSets(nil, 0).
func (m *Memory) FailSets(err error, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr, m.setFails = err, n
}

// Sets returns the number of successful writes.
func (m *Memory) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Close releases the notifier.
func (m *Memory) Close() error {
	m.notifier.Close()
	return nil
}

func consume(err *error, n *int) error {
	if *err == nil || *n == 0 {
		return nil
	}
	if *n > 0 {
		*n--
	}
	return *err
}

var (
	_ SyncStore   = (*Memory)(nil)
	_ BackupStore = (*Memory)(nil)
)
