package key

import (
	"strconv"
	"strings"
)

// namedKey describes a non-character key on a US layout.
type namedKey struct {
	key     string
	code    string
	keyCode int
}

// keyNameMap maps key names (lowercase) to their DOM key, code and legacy
// key code.
var keyNameMap = map[string]namedKey{
	"escape":     {"Escape", "Escape", 27},
	"esc":        {"Escape", "Escape", 27},
	"enter":      {"Enter", "Enter", 13},
	"return":     {"Enter", "Enter", 13},
	"cr":         {"Enter", "Enter", 13},
	"tab":        {"Tab", "Tab", 9},
	"backspace":  {"Backspace", "Backspace", 8},
	"bs":         {"Backspace", "Backspace", 8},
	"delete":     {"Delete", "Delete", 46},
	"del":        {"Delete", "Delete", 46},
	"insert":     {"Insert", "Insert", 45},
	"ins":        {"Insert", "Insert", 45},
	"home":       {"Home", "Home", 36},
	"end":        {"End", "End", 35},
	"pageup":     {"PageUp", "PageUp", 33},
	"pgup":       {"PageUp", "PageUp", 33},
	"pagedown":   {"PageDown", "PageDown", 34},
	"pgdn":       {"PageDown", "PageDown", 34},
	"arrowup":    {"ArrowUp", "ArrowUp", 38},
	"up":         {"ArrowUp", "ArrowUp", 38},
	"arrowdown":  {"ArrowDown", "ArrowDown", 40},
	"down":       {"ArrowDown", "ArrowDown", 40},
	"arrowleft":  {"ArrowLeft", "ArrowLeft", 37},
	"left":       {"ArrowLeft", "ArrowLeft", 37},
	"arrowright": {"ArrowRight", "ArrowRight", 39},
	"right":      {"ArrowRight", "ArrowRight", 39},
	"space":      {" ", "Space", 32},
	"pause":      {"Pause", "Pause", 19},
	"capslock":   {"CapsLock", "CapsLock", 20},
	"numlock":    {"NumLock", "NumLock", 144},
	"scrolllock": {"ScrollLock", "ScrollLock", 145},
}

// punctuation maps US-layout punctuation to code and legacy key code.
var punctuation = map[rune]namedKey{
	'-':  {"-", "Minus", 189},
	'=':  {"=", "Equal", 187},
	'[':  {"[", "BracketLeft", 219},
	']':  {"]", "BracketRight", 221},
	'\\': {"\\", "Backslash", 220},
	';':  {";", "Semicolon", 186},
	'\'': {"'", "Quote", 222},
	',':  {",", "Comma", 188},
	'.':  {".", "Period", 190},
	'/':  {"/", "Slash", 191},
	'`':  {"`", "Backquote", 192},
}

// lookupNamedKey resolves a key name (case-insensitive) to a named key.
// Function keys F1 through F24 are resolved without a table entry.
func lookupNamedKey(name string) (namedKey, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if nk, ok := keyNameMap[lower]; ok {
		return nk, true
	}
	if len(lower) >= 2 && lower[0] == 'f' {
		n, err := strconv.Atoi(lower[1:])
		if err == nil && n >= 1 && n <= 24 {
			fk := "F" + strconv.Itoa(n)
			return namedKey{key: fk, code: fk, keyCode: 111 + n}, true
		}
	}
	return namedKey{}, false
}

// shiftedSymbols maps each US-layout key that has a shifted symbol to
// that symbol, e.g. '1' to '!'.
var shiftedSymbols = map[rune]rune{
	'1': '!', '2': '@', '3': '#', '4': '$', '5': '%',
	'6': '^', '7': '&', '8': '*', '9': '(', '0': ')',
	'-': '_', '=': '+', '[': '{', ']': '}', '\\': '|',
	';': ':', '\'': '"', ',': '<', '.': '>', '/': '?',
	'`': '~',
}

// unshifted is the inverse of shiftedSymbols.
var unshifted = func() map[rune]rune {
	m := make(map[rune]rune, len(shiftedSymbols))
	for base, sym := range shiftedSymbols {
		m[sym] = base
	}
	return m
}()

// ImpliesShift reports whether typing r on a US layout needs Shift:
// upper-case letters and the shifted digit and punctuation symbols.
func ImpliesShift(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	_, ok := unshifted[r]
	return ok
}

// runeKey describes a single-character key. Letters, digits and
// punctuation honour shift for the key name the way a browser reports
// them, so '1' with shift is "!" on the Digit1 key.
func runeKey(r rune, shift bool) namedKey {
	if base, ok := unshifted[r]; ok {
		nk := runeKey(base, false)
		nk.key = string(r)
		return nk
	}
	var nk namedKey
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		lowerR := r | 0x20
		upperR := lowerR &^ 0x20
		name := string(lowerR)
		if shift {
			name = string(upperR)
		}
		return namedKey{key: name, code: "Key" + string(upperR), keyCode: int(upperR)}
	case r >= '0' && r <= '9':
		nk = namedKey{key: string(r), code: "Digit" + string(r), keyCode: int(r)}
	default:
		p, ok := punctuation[r]
		if !ok {
			return namedKey{key: string(r)}
		}
		nk = p
	}
	if shift {
		nk.key = string(shiftedSymbols[r])
	}
	return nk
}
