package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// ParseChord parses a chord specification into a Record.
//
// Supported formats:
//   - Single character: "a", "K", "1", "/"
//   - Named keys: "Enter", "Escape", "Tab", "ArrowUp", "Space", "F5"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+k", "Command+Option+Left"
//   - The plus key itself: "Ctrl++"
//   - Shifted symbols: "Shift+1" and "!" both name the "!" key
//
// Upper-case letters and shifted symbols imply Shift. The key code, legacy key code and which fields are derived from a US
// keyboard layout. Unknown multi-character names are rejected.
func ParseChord(spec string) (Record, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Record{}, ErrEmptySpec
	}

	var mods Modifier
	keyPart := spec

	if idx := chordSplit(spec); idx >= 0 {
		keyPart = spec[idx+1:]
		var err error
		if mods, err = ParseModifiers(spec[:idx]); err != nil {
			return Record{}, err
		}
	}

	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Record{}, fmt.Errorf("%w: missing key in %q", ErrInvalidSpec, spec)
	}

	var nk namedKey
	if runes := []rune(keyPart); len(runes) == 1 {
		r := runes[0]
		if ImpliesShift(r) {
			mods = mods.With(ModShift)
		}
		nk = runeKey(r, mods.HasShift())
	} else {
		var ok bool
		nk, ok = lookupNamedKey(keyPart)
		if !ok {
			return Record{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
		}
	}

	rec := Record{
		Key:     nk.key,
		Code:    nk.code,
		KeyCode: nk.keyCode,
		Which:   nk.keyCode,
	}
	return rec.WithModifiers(mods), nil
}

// MustParseChord parses a chord specification and panics on error.
// Use only for known-valid specs in initialization code and tests.
func MustParseChord(spec string) Record {
	r, err := ParseChord(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return r
}

// chordSplit returns the index of the '+' separating modifiers from the
// key, or -1 when the chord has no modifiers. A trailing "++" means the
// key is '+'.
func chordSplit(spec string) int {
	if len(spec) < 2 {
		return -1
	}
	if strings.HasSuffix(spec, "++") {
		return len(spec) - 2
	}
	return strings.LastIndex(spec, "+")
}

// RuneRecord builds the record for a single-character key pressed with
// mods. The reported key name follows Shift, and a shifted symbol adds
// Shift to mods.
func RuneRecord(r rune, mods Modifier) Record {
	if ImpliesShift(r) {
		mods = mods.With(ModShift)
	}
	nk := runeKey(r, mods.HasShift())
	rec := Record{Key: nk.key, Code: nk.code, KeyCode: nk.keyCode, Which: nk.keyCode}
	return rec.WithModifiers(mods)
}

// NamedRecord builds the record for a named key such as "Enter" or "F5".
// It returns false for names the US-layout table does not know.
func NamedRecord(name string, mods Modifier) (Record, bool) {
	nk, ok := lookupNamedKey(name)
	if !ok {
		return Record{}, false
	}
	rec := Record{Key: nk.key, Code: nk.code, KeyCode: nk.keyCode, Which: nk.keyCode}
	return rec.WithModifiers(mods), true
}
