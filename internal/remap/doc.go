// Package remap applies key mappings on a host document.
//
// ConfigStore keeps the runtime's read-only copy of the config. It loads
// the config from the sync store, retries on a fixed interval while the
// store fails, and replaces the copy wholesale on every change
// notification. Until the first load succeeds no remapping happens.
//
// Runtime listens to key presses on a Document. A press on an in-scope
// host whose identity has a mapping is suppressed and the mapping is
// replayed as synthetic events. While a replay is in flight further
// mapped presses are suppressed and their replay is dropped; unmapped
// keys always pass through.
package remap
