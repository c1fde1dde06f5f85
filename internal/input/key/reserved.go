package key

import "slices"

// reservedIdentities are chords the browser consumes before a page sees
// them. Mapping them from the page is impossible, so capture refuses them.
var reservedIdentities = map[string]struct{}{
	// Windows/Linux
	"Ctrl+W": {},
	"Ctrl+Q": {},
	"Alt+F4": {},

	// macOS
	"Command+W": {},
	"Command+Q": {},
	"Command+M": {},
	"Command+H": {},

	// Everywhere
	"F5":  {},
	"F11": {},
}

// modifierKeyNames are key names reported when a modifier alone is pressed.
var modifierKeyNames = map[string]struct{}{
	"Control": {},
	"Alt":     {},
	"Shift":   {},
	"Meta":    {},
	"Command": {},
}

// IsReserved returns true if the identity names a browser-reserved chord.
func IsReserved(identity string) bool {
	_, ok := reservedIdentities[identity]
	return ok
}

// ReservedIdentities returns the reserved chord identities.
func ReservedIdentities() []string {
	out := make([]string, 0, len(reservedIdentities))
	for id := range reservedIdentities {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsModifierKey returns true if the key name is a bare modifier press.
func IsModifierKey(name string) bool {
	_, ok := modifierKeyNames[name]
	return ok
}
