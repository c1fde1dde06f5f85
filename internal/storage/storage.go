// Package storage defines the stores the remapping config lives in.
//
// A SyncStore holds the canonical config and publishes a change
// notification on every write, including writes made by other
// processes. A BackupStore is local-only and holds backup snapshots; it
// has no notifications.
package storage

import (
	"context"
	"errors"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// SyncStore is a synchronized key-value store with change notification.
type SyncStore interface {
	// Get returns the raw value stored under key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key and notifies subscribers.
	Set(ctx context.Context, key string, value []byte) error

	// Subscribe registers an observer for every change.
	Subscribe(observer notify.Observer) *notify.Subscription

	// SubscribeKey registers an observer for changes to key and for
	// reloads of the whole store.
	SubscribeKey(key string, observer notify.Observer) *notify.Subscription
}

// BackupStore is a local store for backup snapshots.
type BackupStore interface {
	// Load returns the most recent snapshot stored under key.
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Save stores a snapshot under key.
	Save(ctx context.Context, key string, value []byte) error
}
