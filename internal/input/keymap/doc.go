// Package keymap holds the remapping configuration: the sites remapping is
// active on and the table mapping source chords to target chords.
//
// # Key Concepts
//
// Config: The persisted record, {websites, mappings}. One Config value is
// one working copy; callers that share it hand out clones.
//
// Mapping: The value stored under a source identity. Either a single
// target record or an ordered sequence of steps, each with its own delay.
//
// Site scope: A hostname is in scope when it equals a configured site or
// is a subdomain of one. IsActive is evaluated on every key press.
//
// # Wire Format
//
//	{
//	  "websites": ["example.com"],
//	  "mappings": {
//	    "Ctrl+Shift+K": {"key": "a", "code": "KeyA", "keyCode": 65, "which": 65},
//	    "Alt+1": [
//	      {"key": "g", "code": "KeyG", "keyCode": 71, "which": 71, "delay": 100},
//	      {"key": "i", "code": "KeyI", "keyCode": 73, "which": 73}
//	    ]
//	  }
//	}
//
// # Validation
//
// Parse and Validate check a config against the embedded JSON
// schema (keymap.schema.json) and then apply semantic checks. Failures are
// *Error values carrying a Kind; use errors.Is with the Err* sentinels or
// KindOf to classify them.
//
// Load is the lenient counterpart used when reading stored data: entries
// that would fail validation are dropped and reported instead of failing
// the whole load.
package keymap
