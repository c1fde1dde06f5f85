// Package editor implements the editing side of the remapping config.
//
// A Session owns a working copy of the config loaded from the sync
// store. Mutations run one at a time under a FIFO Lock, mark the session
// modified and arm a debounced autosave. A ticker writes snapshots to
// the backup store, and a load that fails falls back to the newest
// usable snapshot or to an empty config.
//
// User-facing outcomes are reported through a Reporter; Messages is a
// bounded queue implementation used by the command line front end.
package editor
