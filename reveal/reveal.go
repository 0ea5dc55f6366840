// Package reveal plays a text payload into a message one character per tick.
//
// The engine is single-flight: starting a reveal stops the previous one,
// whose ticks are then recognised by generation and ignored. Frames are
// produced inside the bubbletea update loop, so no locking is needed.
package reveal

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is the per-character reveal period.
const DefaultInterval = 20 * time.Millisecond

// TickMsg advances the reveal that scheduled it.
type TickMsg struct {
	gen uint64
}

// Frame is one observable content state of the revealed message.
type Frame struct {
	MessageID string
	Text      string // visible text so far
	Done      bool   // true exactly once, on natural completion, with the full text
}

// Task is the active reveal.
type Task struct {
	MessageID string
	full      []rune
	index     int
	gen       uint64
}

// Visible returns the text shown so far.
func (t *Task) Visible() string { return string(t.full[:t.index]) }

// Engine drives at most one Task.
type Engine struct {
	interval time.Duration
	gen      uint64
	active   *Task
}

// New creates an engine. A non-positive interval selects DefaultInterval.
func New(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{interval: interval}
}

// Interval returns the tick period.
func (e *Engine) Interval() time.Duration { return e.interval }

// Active returns the running task, or nil.
func (e *Engine) Active() *Task { return e.active }

// Start begins revealing text into messageID. It returns the initial empty
// frame, the task it stopped (nil if none) and the command scheduling the
// first tick.
func (e *Engine) Start(messageID, text string) (Frame, *Task, tea.Cmd) {
	stopped := e.Stop()
	e.gen++
	e.active = &Task{
		MessageID: messageID,
		full:      []rune(text),
		gen:       e.gen,
	}
	return Frame{MessageID: messageID}, stopped, e.schedule(e.gen)
}

// Stop cancels the running task, leaving its partial output as is.
func (e *Engine) Stop() *Task {
	t := e.active
	e.active = nil
	return t
}

// Update handles a tick. ok is false for ticks of stopped tasks.
func (e *Engine) Update(msg TickMsg) (frame Frame, cmd tea.Cmd, ok bool) {
	t := e.active
	if t == nil || msg.gen != t.gen {
		return Frame{}, nil, false
	}
	if t.index < len(t.full) {
		t.index++
	}
	frame = Frame{MessageID: t.MessageID, Text: t.Visible()}
	if t.index == len(t.full) {
		frame.Done = true
		e.active = nil
		return frame, nil, true
	}
	return frame, e.schedule(t.gen), true
}

func (e *Engine) schedule(gen uint64) tea.Cmd {
	return tea.Tick(e.interval, func(time.Time) tea.Msg {
		return TickMsg{gen: gen}
	})
}
