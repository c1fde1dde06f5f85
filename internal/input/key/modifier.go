package key

import (
	"fmt"
	"strings"
)

// Modifier is a set of held modifier keys, one bit per DOM flag
// (ctrlKey, shiftKey, altKey, metaKey).
type Modifier uint8

// ModNone is the empty set.
const ModNone Modifier = 0

// The bits are declared in identity order: a key identity lists held
// modifiers as ctrl, shift, alt, meta.
const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModMeta

	modCount = iota
)

// Has reports whether every bit of mod is held.
func (m Modifier) Has(mod Modifier) bool { return mod != ModNone && m&mod == mod }

func (m Modifier) HasCtrl() bool { return m&ModCtrl != 0 }

func (m Modifier) HasShift() bool { return m&ModShift != 0 }

func (m Modifier) HasAlt() bool { return m&ModAlt != 0 }

func (m Modifier) HasMeta() bool { return m&ModMeta != 0 }

// With returns m plus mod.
func (m Modifier) With(mod Modifier) Modifier { return m | mod }

func (m Modifier) IsEmpty() bool { return m == ModNone }

// Names lists the held modifiers by their display name on p.
func (m Modifier) Names(p Platform) []string {
	if m.IsEmpty() {
		return nil
	}
	var names []string
	for i := 0; i < modCount; i++ {
		if bit := Modifier(1) << i; m.Has(bit) {
			names = append(names, p.ModifierName(bit))
		}
	}
	return names
}

// String joins the PC display names with "+", e.g. "Ctrl+Shift".
func (m Modifier) String() string {
	return strings.Join(m.Names(PlatformOther), "+")
}

// modifierAliases accepts both the Apple and the PC spelling of each
// modifier on every platform.
var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"command": ModMeta,
	"win":     ModMeta,
	"super":   ModMeta,
}

// ModifierFromName looks up a single modifier name, ignoring case and
// surrounding space. Unknown names yield ModNone.
func ModifierFromName(name string) Modifier {
	return modifierAliases[strings.ToLower(strings.TrimSpace(name))]
}

// ParseModifiers reads a "+"-joined list such as "Cmd+Option". Every
// part must name a modifier.
func ParseModifiers(s string) (Modifier, error) {
	var m Modifier
	for part := range strings.SplitSeq(s, "+") {
		mod := ModifierFromName(part)
		if mod.IsEmpty() {
			return ModNone, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, strings.TrimSpace(part))
		}
		m = m.With(mod)
	}
	return m, nil
}
