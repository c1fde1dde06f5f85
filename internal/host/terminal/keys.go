package terminal

import (
	"fmt"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
)

// namedKeys maps tcell special keys to DOM key names.
var namedKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyTab:        "Tab",
	tcell.KeyBacktab:    "Tab",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyEscape:     "Escape",
	tcell.KeyDelete:     "Delete",
	tcell.KeyInsert:     "Insert",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyUp:         "ArrowUp",
	tcell.KeyDown:       "ArrowDown",
	tcell.KeyLeft:       "ArrowLeft",
	tcell.KeyRight:      "ArrowRight",
	tcell.KeyPause:      "Pause",
}

func init() {
	for i := 0; i < 24; i++ {
		namedKeys[tcell.KeyF1+tcell.Key(i)] = fmt.Sprintf("F%d", i+1)
	}
}

// RecordFromKey converts a tcell key event to a key record. It returns
// false for keys that have no DOM equivalent.
func RecordFromKey(ev *tcell.EventKey) (key.Record, bool) {
	mods := modifiers(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if r == ' ' {
			return key.NamedRecord("Space", mods)
		}
		if unicode.IsUpper(r) {
			mods = mods.With(key.ModShift)
		}
		return key.RuneRecord(r, mods), true

	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ && (mods.HasCtrl() || !isControlAlias(k)):
		return key.RuneRecord(rune('a'+(k-tcell.KeyCtrlA)), mods.With(key.ModCtrl)), true
	}

	name, ok := namedKeys[k]
	if !ok {
		return key.Record{}, false
	}
	if k == tcell.KeyBacktab {
		mods = mods.With(key.ModShift)
	}
	return key.NamedRecord(name, mods)
}

// isControlAlias reports whether a control code is also the code of a
// named key, e.g. Ctrl+I and Tab.
func isControlAlias(k tcell.Key) bool {
	switch k {
	case tcell.KeyTab, tcell.KeyEnter, tcell.KeyBackspace:
		return true
	}
	return false
}

func modifiers(m tcell.ModMask) key.Modifier {
	var out key.Modifier
	if m&tcell.ModCtrl != 0 {
		out = out.With(key.ModCtrl)
	}
	if m&tcell.ModShift != 0 {
		out = out.With(key.ModShift)
	}
	if m&tcell.ModAlt != 0 {
		out = out.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		out = out.With(key.ModMeta)
	}
	return out
}
