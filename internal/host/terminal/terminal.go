// Package terminal hosts the remapping runtime in a terminal.
//
// Document plays the part of a web page: physical key presses from the
// tcell screen are delivered to capture listeners, and a single text
// field holds focus and receives typed characters. Synthetic events
// dispatched by a replay are shown in an event log, so a user can try
// mappings without a browser.
package terminal

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
	"github.com/Aimarl0/keymap-extension/internal/input/macro"
	"github.com/Aimarl0/keymap-extension/internal/remap"
)

const maxLogLines = 200

// fieldRow is the screen row of the text field.
const fieldRow = 2

// Document is a terminal page for the remapping runtime.
type Document struct {
	screen   tcell.Screen
	host     string
	platform key.Platform

	mu        sync.Mutex
	listeners map[int]func(remap.KeyEvent)
	nextID    int
	text      []rune
	log       []string
	focused   bool
	runtime   *remap.Runtime
}

// New creates a document drawing on screen. The screen must already be
// initialized.
func New(screen tcell.Screen, host string, platform key.Platform) *Document {
	return &Document{
		screen:    screen,
		host:      host,
		platform:  platform,
		listeners: make(map[int]func(remap.KeyEvent)),
		focused:   true,
	}
}

// Hostname implements remap.Document.
func (d *Document) Hostname() string {
	return d.host
}

// AddKeyListener implements remap.Document.
func (d *Document) AddKeyListener(fn func(remap.KeyEvent)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Follow shows the state of rt in the header and logs every config it
// loads.
func (d *Document) Follow(rt *remap.Runtime) {
	d.mu.Lock()
	d.runtime = rt
	d.mu.Unlock()
	rt.Store().OnChange(func(c *keymap.Config) {
		d.appendLog(fmt.Sprintf("config loaded: %d sites, %d mappings", len(c.Sites), len(c.Mappings)))
		d.wake()
	})
}

// SetFocus gives or takes focus from the text field.
func (d *Document) SetFocus(focused bool) {
	d.mu.Lock()
	d.focused = focused
	d.mu.Unlock()
	d.wake()
}

// Text returns the contents of the text field.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.text)
}

// Log returns a copy of the event log.
func (d *Document) Log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.log)
}

// DispatchDocument implements macro.Dispatcher. Synthetic keydowns reach
// the capture listeners like any other keydown.
func (d *Document) DispatchDocument(ev macro.Event) error {
	d.appendLog(fmt.Sprintf("synthetic %s %s", ev.Phase, key.Identify(d.platform, ev.Record)))
	if ev.Phase == macro.PhaseDown {
		d.deliver(&keyEvent{rec: ev.Record, synthetic: ev.Synthetic})
	}
	d.wake()
	return nil
}

// DispatchFocused implements macro.Dispatcher. A keypress types into the
// text field.
func (d *Document) DispatchFocused(ev macro.Event) error {
	d.mu.Lock()
	focused := d.focused
	d.mu.Unlock()
	if !focused {
		return macro.ErrNoFocus
	}
	if ev.Phase == macro.PhasePress {
		d.defaultAction(ev.Record)
	}
	d.wake()
	return nil
}

// Run processes terminal events until Ctrl+C is pressed, ctx ends, or
// the screen is finalized.
func (d *Document) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, d.wake)
	defer stop()

	for {
		d.draw()
		if ctx.Err() != nil {
			return nil
		}
		switch ev := d.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			d.screen.Sync()
		case *tcell.EventMouse:
			d.HandleMouse(ev)
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			d.HandleKey(ev)
		}
	}
}

// HandleKey delivers a physical key press to the capture listeners and
// applies its default action unless a listener prevented it.
func (d *Document) HandleKey(ev *tcell.EventKey) {
	rec, ok := RecordFromKey(ev)
	if !ok {
		return
	}
	kev := &keyEvent{rec: rec}
	d.deliver(kev)
	if kev.prevented {
		d.appendLog("suppressed " + key.Identify(d.platform, rec))
		return
	}
	d.appendLog("keydown " + key.Identify(d.platform, rec))
	d.defaultAction(rec)
}

// HandleMouse focuses the text field when it is clicked and blurs it on
// a click anywhere else.
func (d *Document) HandleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		return
	}
	_, y := ev.Position()
	d.SetFocus(y == fieldRow)
}

func (d *Document) deliver(ev *keyEvent) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(remap.KeyEvent), len(ids))
	for i, id := range ids {
		fns[i] = d.listeners[id]
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
		if ev.stopped {
			return
		}
	}
}

// defaultAction edits the text field the way a focused input would.
func (d *Document) defaultAction(rec key.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.focused || rec.CtrlKey || rec.AltKey || rec.MetaKey {
		return
	}
	switch rec.Key {
	case "Backspace":
		if n := len(d.text); n > 0 {
			d.text = d.text[:n-1]
		}
	case "Enter":
		d.addLogLocked("submitted " + string(d.text))
		d.text = d.text[:0]
	default:
		if r := []rune(rec.Key); len(r) == 1 {
			d.text = append(d.text, r[0])
		}
	}
}

func (d *Document) appendLog(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addLogLocked(line)
}

func (d *Document) addLogLocked(line string) {
	d.log = append(d.log, line)
	if over := len(d.log) - maxLogLines; over > 0 {
		d.log = slices.Delete(d.log, 0, over)
	}
}

// wake interrupts PollEvent so the screen is redrawn.
func (d *Document) wake() {
	_ = d.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (d *Document) draw() {
	d.mu.Lock()
	header := fmt.Sprintf("host: %s   listeners: %d   Ctrl+C quits", d.host, len(d.listeners))
	field := "> " + string(d.text)
	if !d.focused {
		field = "  (no focus, click here)"
	}
	lines := slices.Clone(d.log)
	rt := d.runtime
	d.mu.Unlock()

	if rt != nil {
		switch {
		case !rt.Store().Ready():
			header += "   [waiting for config]"
		case rt.Replaying():
			header += "   [replaying]"
		}
	}

	d.screen.Clear()
	w, h := d.screen.Size()
	bold := tcell.StyleDefault.Bold(true)
	putString(d.screen, 0, 0, w, header, bold)
	putString(d.screen, 0, fieldRow, w, field, tcell.StyleDefault)

	room := h - 4
	if room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	for i, line := range lines {
		putString(d.screen, 0, 4+i, w, line, tcell.StyleDefault.Dim(true))
	}
	d.screen.ShowCursor(len([]rune(field)), fieldRow)
	d.screen.Show()
}

func putString(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// keyEvent is a key press seen by capture listeners.
type keyEvent struct {
	rec       key.Record
	synthetic bool
	prevented bool
	stopped   bool
}

func (e *keyEvent) Record() key.Record        { return e.rec }
func (e *keyEvent) Synthetic() bool           { return e.synthetic }
func (e *keyEvent) PreventDefault()           { e.prevented = true }
func (e *keyEvent) StopImmediatePropagation() { e.stopped = true }
