package key

import (
	"errors"
	"testing"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		spec string
		want Record
	}{
		{"a", Record{Key: "a", Code: "KeyA", KeyCode: 65, Which: 65}},
		{"K", Record{Key: "K", Code: "KeyK", KeyCode: 75, Which: 75, ShiftKey: true}},
		{"Ctrl+Shift+k", Record{Key: "K", Code: "KeyK", KeyCode: 75, Which: 75, CtrlKey: true, ShiftKey: true}},
		{"ctrl+s", Record{Key: "s", Code: "KeyS", KeyCode: 83, Which: 83, CtrlKey: true}},
		{"Alt+F4", Record{Key: "F4", Code: "F4", KeyCode: 115, Which: 115, AltKey: true}},
		{"F12", Record{Key: "F12", Code: "F12", KeyCode: 123, Which: 123}},
		{"Enter", Record{Key: "Enter", Code: "Enter", KeyCode: 13, Which: 13}},
		{"Command+Option+Left", Record{Key: "ArrowLeft", Code: "ArrowLeft", KeyCode: 37, Which: 37, MetaKey: true, AltKey: true}},
		{"Space", Record{Key: " ", Code: "Space", KeyCode: 32, Which: 32}},
		{"Alt+5", Record{Key: "5", Code: "Digit5", KeyCode: 53, Which: 53, AltKey: true}},
		{"Ctrl+/", Record{Key: "/", Code: "Slash", KeyCode: 191, Which: 191, CtrlKey: true}},
		{"Ctrl++", Record{Key: "+", Code: "Equal", KeyCode: 187, Which: 187, CtrlKey: true, ShiftKey: true}},
		{"+", Record{Key: "+", Code: "Equal", KeyCode: 187, Which: 187, ShiftKey: true}},
		{"Shift+1", Record{Key: "!", Code: "Digit1", KeyCode: 49, Which: 49, ShiftKey: true}},
		{"!", Record{Key: "!", Code: "Digit1", KeyCode: 49, Which: 49, ShiftKey: true}},
		{"Ctrl+Shift+/", Record{Key: "?", Code: "Slash", KeyCode: 191, Which: 191, CtrlKey: true, ShiftKey: true}},
		{"é", Record{Key: "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseChord(tt.spec)
			if err != nil {
				t.Fatalf("ParseChord(%q) error = %v", tt.spec, err)
			}
			if !got.Equals(tt.want) {
				t.Errorf("ParseChord(%q) = %#v, want %#v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestShiftedSymbolIdentity(t *testing.T) {
	// A US-layout browser reports Shift+1 as key "!" with shiftKey set.
	browser := Record{Key: "!", Code: "Digit1", KeyCode: 49, Which: 49, ShiftKey: true}
	want := Identify(PlatformOther, browser)
	if want != "Shift+!" {
		t.Fatalf("Identify(browser) = %q, want %q", want, "Shift+!")
	}
	for _, spec := range []string{"Shift+1", "!", "shift+!"} {
		if got := Identify(PlatformOther, MustParseChord(spec)); got != want {
			t.Errorf("Identify(ParseChord(%q)) = %q, want %q", spec, got, want)
		}
	}
	if got := Identify(PlatformOther, RuneRecord('!', ModNone)); got != want {
		t.Errorf("Identify(RuneRecord('!')) = %q, want %q", got, want)
	}
}

func TestParseChordErrors(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"", ErrEmptySpec},
		{"   ", ErrEmptySpec},
		{"Hyper+a", ErrInvalidSpec},
		{"Ctrl+", ErrInvalidSpec},
		{"Ctrl+Bogus", ErrInvalidSpec},
		{"F99", ErrInvalidSpec},
		{"++", ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := ParseChord(tt.spec)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseChord(%q) error = %v, want %v", tt.spec, err, tt.want)
			}
		})
	}
}

func TestParseChordIdentityRoundTrip(t *testing.T) {
	specs := map[string]string{
		"Ctrl+Shift+k": "Ctrl+Shift+K",
		"alt+f4":       "Alt+F4",
		"Win+Enter":    "Win+Enter",
		"x":            "X",
	}
	for spec, want := range specs {
		r := MustParseChord(spec)
		if got := Identify(PlatformOther, r); got != want {
			t.Errorf("Identify(ParseChord(%q)) = %q, want %q", spec, got, want)
		}
	}
}

func TestRuneAndNamedRecord(t *testing.T) {
	if got, want := RuneRecord('k', ModCtrl|ModShift), MustParseChord("Ctrl+Shift+k"); !got.Equals(want) {
		t.Errorf("RuneRecord = %#v, want %#v", got, want)
	}
	if got := RuneRecord('q', ModNone); got.Key != "q" || got.Code != "KeyQ" || got.KeyCode != 81 {
		t.Errorf("RuneRecord('q') = %#v", got)
	}

	got, ok := NamedRecord("pgdn", ModAlt)
	if !ok {
		t.Fatal("NamedRecord(pgdn) not found")
	}
	if want := MustParseChord("Alt+PageDown"); !got.Equals(want) {
		t.Errorf("NamedRecord = %#v, want %#v", got, want)
	}
	if _, ok := NamedRecord("Hyper", ModNone); ok {
		t.Error("NamedRecord(Hyper) should not resolve")
	}
}
