package editor

import (
	"fmt"
	"sync"
	"time"
)

// DefaultMaxMessages is the number of pending messages Messages keeps.
const DefaultMaxMessages = 5

// Level is the severity of a user-facing message.
type Level uint8

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Message is a transient status message.
type Message struct {
	Level Level
	Text  string
	At    time.Time
}

// String formats the message for display.
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Level, m.Text)
}

// Reporter receives user-facing status messages.
type Reporter interface {
	Report(level Level, text string)
}

type discardReporter struct{}

func (discardReporter) Report(Level, string) {}

// Messages is a bounded queue of pending messages. When full, the
// oldest message is dropped.
type Messages struct {
	mu    sync.Mutex
	max   int
	queue []Message
	now   func() time.Time
}

// NewMessages creates a queue holding at most max messages. A
// non-positive max means DefaultMaxMessages.
func NewMessages(max int) *Messages {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	return &Messages{max: max, now: time.Now}
}

// Report implements Reporter.
func (m *Messages) Report(level Level, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) >= m.max {
		m.queue = m.queue[len(m.queue)-m.max+1:]
	}
	m.queue = append(m.queue, Message{Level: level, Text: text, At: m.now()})
}

// Len returns the number of pending messages.
func (m *Messages) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Drain returns the pending messages, oldest first, and empties the
// queue.
func (m *Messages) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}
