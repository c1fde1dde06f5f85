// Package notify provides change notification for stored values.
//
// Stores publish a Change whenever a key is written, deleted or reloaded
// from outside the process. Components subscribe to all changes or to a
// single key and receive callbacks in delivery order.
package notify

import (
	"slices"
	"sync"
)

// Namespaces of the stores that publish changes.
const (
	// NamespaceSync is the synchronized store holding the canonical config.
	NamespaceSync = "sync"

	// NamespaceLocal is the local-only store.
	NamespaceLocal = "local"
)

// ChangeType represents the type of a stored value change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a value was deleted.
	ChangeDelete

	// ChangeReload indicates the store was reloaded from its backing medium.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a stored value change event.
type Change struct {
	// Namespace discriminates the store, e.g. NamespaceSync.
	Namespace string

	// Key is the changed key.
	Key string

	// Type is the type of change.
	Type ChangeType

	// OldValue is the previous raw value, nil if absent.
	OldValue []byte

	// NewValue is the new raw value, nil if absent.
	NewValue []byte

	// Source identifies where the change came from.
	Source string
}

// Observer is called when a change occurs.
type Observer func(change Change)

// Subscription is the handle returned by Subscribe and SubscribeKey.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once
// and on a nil subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.notifier.mu.Lock()
	delete(s.notifier.observers, s.id)
	s.notifier.mu.Unlock()
}

// observer is a registered callback. An empty key with all set receives
// every change.
type observer struct {
	all bool
	key string
	fn  Observer
}

// wants reports whether the observer should see c. A key observer also
// sees reloads of the whole store.
func (o observer) wants(c Change) bool {
	if o.all || o.key == c.Key {
		return true
	}
	return c.Type == ChangeReload && c.Key == ""
}

// Notifier fans changes out to subscribers in subscription order.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]observer
	nextID    uint64
	closed    bool

	// queue is non-nil in async mode.
	queue chan Change
	done  chan struct{}
	wg    sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync delivers changes from a background goroutine through a queue
// of the given size. Delivery stays one change at a time, in publish
// order.
func WithAsync(queueSize int) Option {
	return func(n *Notifier) {
		if queueSize > 0 {
			n.queue = make(chan Change, queueSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		observers: make(map[uint64]observer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.queue != nil {
		n.wg.Add(1)
		go n.run()
	}
	return n
}

// Subscribe registers fn for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	return n.add(observer{all: true, fn: fn})
}

// SubscribeKey registers fn for changes to key and for whole-store
// reloads.
func (n *Notifier) SubscribeKey(key string, fn Observer) *Subscription {
	return n.add(observer{key: key, fn: fn})
}

func (n *Notifier) add(o observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.observers[id] = o
	return &Subscription{id: id, notifier: n}
}

// Notify publishes a change. Changes published after Close are dropped.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}

	if n.queue == nil {
		n.deliver(change)
		return
	}
	select {
	case n.queue <- change:
	case <-n.done:
	}
}

// NotifySet publishes a set change.
func (n *Notifier) NotifySet(namespace, key string, oldValue, newValue []byte, source string) {
	n.Notify(Change{
		Namespace: namespace,
		Key:       key,
		Type:      ChangeSet,
		OldValue:  oldValue,
		NewValue:  newValue,
		Source:    source,
	})
}

// NotifyDelete publishes a delete change.
func (n *Notifier) NotifyDelete(namespace, key string, oldValue []byte, source string) {
	n.Notify(Change{
		Namespace: namespace,
		Key:       key,
		Type:      ChangeDelete,
		OldValue:  oldValue,
		Source:    source,
	})
}

// Close stops the notifier. Queued changes are delivered before Close
// returns. Close is idempotent.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) deliver(change Change) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.observers))
	for id, o := range n.observers {
		if o.wants(change) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	fns := make([]Observer, len(ids))
	for i, id := range ids {
		fns[i] = n.observers[id].fn
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case change := <-n.queue:
			n.deliver(change)
		case <-n.done:
			for {
				select {
				case change := <-n.queue:
					n.deliver(change)
				default:
					return
				}
			}
		}
	}
}
