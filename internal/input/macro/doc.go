// Package macro replays key chords and timed chord sequences through a
// host dispatcher, and accumulates sequence steps while they are being
// built.
//
// # Replay
//
// A single chord is replayed as a keydown, keypress and keyup triplet.
// Each event goes to the document first and then to the focused element,
// if there is one, followed by a short gap:
//
//	player := macro.NewPlayer(dispatcher)
//	err := player.Play(ctx, mapping)
//
// A sequence replays each step as a triplet and then waits the step's
// delay (50ms when the step carries none) before the next step.
//
// Only one replay runs at a time. Play and PlayAsync return
// ErrAlreadyPlaying while another replay is in flight; the caller decides
// what to do with the rejected replay.
//
// # Recording
//
// Recorder holds the in-progress step list of a sequence before it is
// committed as a mapping.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package macro
