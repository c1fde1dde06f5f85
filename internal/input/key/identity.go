package key

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upper applies full Unicode case mapping, so "ß" becomes "SS" the way a
// browser's toUpperCase does. strings.ToUpper maps rune by rune and would
// leave it unchanged.
var upper = cases.Upper(language.Und)

// Identify returns the canonical identity of a key record.
//
// It is the only implementation of the identity algorithm; the runtime
// lookup and the editor's key capture both call it.
func Identify(p Platform, r Record) string {
	return IdentifyChord(p, r.Modifiers(), r.Key)
}

// IdentifyChord returns the canonical identity of a key name held with
// the given modifiers.
func IdentifyChord(p Platform, mods Modifier, name string) string {
	name = CanonicalKeyName(name)
	if mods == ModNone {
		return name
	}

	var sb strings.Builder
	for _, m := range mods.Names(p) {
		sb.WriteString(m)
		sb.WriteByte('+')
	}
	sb.WriteString(name)
	return sb.String()
}

// CanonicalKeyName normalizes a key name for use in an identity.
// Function keys pass through, single characters are upper-cased and
// every other name is returned unchanged.
func CanonicalKeyName(name string) string {
	if IsFunctionKey(name) {
		return name
	}
	if utf8.RuneCountInString(name) == 1 {
		return upper.String(name)
	}
	return name
}

// IsFunctionKey returns true for names of the form "F<number>".
func IsFunctionKey(name string) bool {
	if len(name) < 2 || name[0] != 'F' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
