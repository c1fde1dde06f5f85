// Package key provides key records and canonical key identities.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Record: A captured key press (key name, code, legacy codes, modifiers)
//   - Modifier: Modifier keys (Ctrl, Shift, Alt, Meta)
//   - Platform: Selects modifier display names (Apple vs. everything else)
//
// # Key Identity
//
// Identify turns a Record into the canonical identity string used as the
// lookup key of a mapping table:
//
//	Ctrl+Shift+K     (Linux/Windows)
//	Control+Option+K (macOS)
//	F5
//
// Modifiers always appear in the order control, shift, alt, meta.
// Single-character key names are upper-cased, everything else passes
// through. Both the remapping runtime and the editor's key capture must
// call Identify; a second implementation would make lookups miss.
//
// # Chord Specifications
//
// ParseChord builds a Record from a textual chord such as "Ctrl+Shift+k",
// "Alt+ArrowLeft" or "F5". It is the command-line substitute for capturing
// a physical key press.
package key
