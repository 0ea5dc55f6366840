// Package transcript holds the ordered, append-only conversation log
// rendered by the widget.
package transcript

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RenderState tracks how much of a message is visible.
type RenderState int

const (
	StatePending   RenderState = iota // placeholder awaiting a reply
	StateRevealing                    // text is being revealed
	StateComplete                     // text is final
)

func (s RenderState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRevealing:
		return "revealing"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("RenderState(%d)", int(s))
	}
}

// Message is one transcript entry.
type Message struct {
	ID        string
	Role      Role
	Text      string
	State     RenderState
	CreatedAt time.Time
}

// Transcript is the conversation log. It is not safe for concurrent use;
// it lives inside the bubbletea update loop.
type Transcript struct {
	messages []Message
	index    map[string]int
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

// AppendUser appends a complete user message and returns its ID.
func (t *Transcript) AppendUser(text string) string {
	return t.append(RoleUser, text, StateComplete)
}

// AppendAssistant appends a complete assistant message and returns its ID.
func (t *Transcript) AppendAssistant(text string) string {
	return t.append(RoleAssistant, text, StateComplete)
}

// AppendPlaceholder appends an empty pending assistant message.
func (t *Transcript) AppendPlaceholder() string {
	return t.append(RoleAssistant, "", StatePending)
}

func (t *Transcript) append(role Role, text string, state RenderState) string {
	id := uuid.NewString()
	t.index[id] = len(t.messages)
	t.messages = append(t.messages, Message{
		ID:        id,
		Role:      role,
		Text:      text,
		State:     state,
		CreatedAt: time.Now(),
	})
	return id
}

// SetVisible updates the visible text of a message that is still being
// revealed. Complete messages are immutable.
func (t *Transcript) SetVisible(id, text string) error {
	m, err := t.mutable(id)
	if err != nil {
		return err
	}
	m.Text = text
	m.State = StateRevealing
	return nil
}

// Complete freezes the message with its final text.
func (t *Transcript) Complete(id, text string) error {
	m, err := t.mutable(id)
	if err != nil {
		return err
	}
	m.Text = text
	m.State = StateComplete
	return nil
}

// Freeze marks a message complete keeping whatever text is visible.
func (t *Transcript) Freeze(id string) error {
	m, err := t.mutable(id)
	if err != nil {
		return err
	}
	m.State = StateComplete
	return nil
}

func (t *Transcript) mutable(id string) (*Message, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("transcript: unknown message %s", id)
	}
	m := &t.messages[i]
	if m.State == StateComplete {
		return nil, fmt.Errorf("transcript: message %s is complete", id)
	}
	return m, nil
}

// Get returns a copy of the message with the given ID.
func (t *Transcript) Get(id string) (Message, bool) {
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i], true
}

// Messages returns a copy of the log in order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// Clear drops every message.
func (t *Transcript) Clear() {
	t.messages = nil
	t.index = make(map[string]int)
}
