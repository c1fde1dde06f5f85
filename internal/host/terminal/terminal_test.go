package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
	"github.com/Aimarl0/keymap-extension/internal/input/macro"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/remap"
	"github.com/Aimarl0/keymap-extension/internal/storage"
)

func TestRecordFromKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want string
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), "A"},
		{"upper rune implies shift", tcell.NewEventKey(tcell.KeyRune, 'K', tcell.ModNone), "Shift+K"},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt), "Alt+X"},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), " "},
		{"shifted symbol implies shift", tcell.NewEventKey(tcell.KeyRune, '!', tcell.ModNone), "Shift+!"},
		{"ctrl letter", tcell.NewEventKey(tcell.KeyCtrlK, 0, tcell.ModCtrl), "Ctrl+K"},
		{"ctrl i is not tab", tcell.NewEventKey(tcell.KeyCtrlI, 0, tcell.ModCtrl), "Ctrl+I"},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), "Tab"},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), "Shift+Tab"},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter"},
		{"function key", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), "F5"},
		{"alt arrow", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModAlt), "Alt+ArrowUp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := RecordFromKey(tt.ev)
			require.True(t, ok)
			assert.Equal(t, tt.want, key.Identify(key.PlatformOther, rec))
			assert.NotZero(t, rec.KeyCode)
		})
	}

	_, ok := RecordFromKey(tcell.NewEventKey(tcell.KeyCtrlBackslash, 0, tcell.ModNone))
	assert.False(t, ok)
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return screen
}

func TestDispatchFocused(t *testing.T) {
	doc := New(newScreen(t), "example.com", key.PlatformOther)

	rec := key.MustParseChord("b")
	require.NoError(t, doc.DispatchFocused(macro.Event{Phase: macro.PhaseDown, Record: rec, Synthetic: true}))
	require.NoError(t, doc.DispatchFocused(macro.Event{Phase: macro.PhasePress, Record: rec, Synthetic: true}))
	assert.Equal(t, "b", doc.Text())

	doc.SetFocus(false)
	err := doc.DispatchFocused(macro.Event{Phase: macro.PhasePress, Record: rec, Synthetic: true})
	assert.ErrorIs(t, err, macro.ErrNoFocus)
	assert.Equal(t, "b", doc.Text())
}

func TestHandleMouseMovesFocus(t *testing.T) {
	doc := New(newScreen(t), "example.com", key.PlatformOther)
	rec := key.MustParseChord("b")
	press := macro.Event{Phase: macro.PhasePress, Record: rec, Synthetic: true}

	doc.HandleMouse(tcell.NewEventMouse(3, 10, tcell.Button1, tcell.ModNone))
	assert.ErrorIs(t, doc.DispatchFocused(press), macro.ErrNoFocus)

	// Moving without a button held changes nothing.
	doc.HandleMouse(tcell.NewEventMouse(3, fieldRow, tcell.ButtonNone, tcell.ModNone))
	assert.ErrorIs(t, doc.DispatchFocused(press), macro.ErrNoFocus)

	doc.HandleMouse(tcell.NewEventMouse(3, fieldRow, tcell.Button1, tcell.ModNone))
	require.NoError(t, doc.DispatchFocused(press))
	assert.Equal(t, "b", doc.Text())
}

func TestHandleKeyDefaultAction(t *testing.T) {
	doc := New(newScreen(t), "example.com", key.PlatformOther)

	doc.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone))
	doc.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	doc.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	doc.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	assert.Equal(t, "hi", doc.Text())

	doc.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	assert.Equal(t, "", doc.Text())
	assert.Contains(t, doc.Log(), "submitted hi")
}

func TestRuntimeRemapsTerminalKeys(t *testing.T) {
	screen := newScreen(t)
	doc := New(screen, "app.example.com", key.PlatformOther)

	cfg := keymap.New()
	cfg.AddSite("example.com")
	cfg.SetMapping("A", keymap.Single(key.MustParseChord("b")))
	data, err := cfg.Encode()
	require.NoError(t, err)

	store := storage.NewMemory(notify.NamespaceSync)
	require.NoError(t, store.Set(context.Background(), keymap.StorageKey, data))

	rt := remap.New(doc, store,
		remap.WithPlatform(key.PlatformOther),
		remap.WithEventGap(time.Millisecond),
		remap.WithLogger(logging.Discard()),
	)
	doc.Follow(rt)
	require.NoError(t, rt.Start(context.Background()))
	defer rt.Close()
	assert.Contains(t, doc.Log(), "config loaded: 1 sites, 1 mappings")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- doc.Run(ctx) }()

	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	require.Eventually(t, func() bool { return doc.Text() == "b" }, time.Second, 5*time.Millisecond)

	screen.InjectKey(tcell.KeyRune, 'c', tcell.ModNone)
	require.Eventually(t, func() bool { return doc.Text() == "bc" }, time.Second, 5*time.Millisecond)

	rt.Wait()
	assert.Contains(t, doc.Log(), "suppressed A")
	assert.Contains(t, doc.Log(), "synthetic keydown B")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunQuitsOnCtrlC(t *testing.T) {
	screen := newScreen(t)
	doc := New(screen, "example.com", key.PlatformOther)

	done := make(chan error, 1)
	go func() { done <- doc.Run(context.Background()) }()
	screen.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return on Ctrl+C")
	}
}
