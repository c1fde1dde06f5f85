// Package config loads the application settings of the keymapper tools.
//
// Settings are read from a TOML file (default
// $XDG_CONFIG_HOME/keymapper/settings.toml). A missing file yields the
// defaults. Settings only tune the local harness: store locations, editor
// timers, replay timings and logging. The remapping data itself lives in
// the sync store and is never read from this file.
//
// Example:
//
//	[storage]
//	sync_path = "~/.config/keymapper/sync.json"
//	backup_path = "~/.local/state/keymapper/backup.db"
//
//	[editor]
//	autosave_delay = "3s"
//	backup_interval = "60s"
//
//	[runtime]
//	retry_interval = "5s"
//	event_gap = "10ms"
//	default_step_delay = "50ms"
//	platform = ""
//
//	[log]
//	level = "info"
//	format = "text"
package config
