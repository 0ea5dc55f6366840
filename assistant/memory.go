package assistant

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultHistoryTokens bounds the conversation history sent with each request.
const DefaultHistoryTokens = 2048

// Memory is a conversation buffer bounded by a token budget. When the
// budget is exceeded the oldest turns are dropped first.
type Memory struct {
	mu       sync.Mutex
	codec    tokenizer.Codec
	budget   int
	messages []Message
	tokens   []int // token count per message
}

// NewMemory creates a buffer holding at most budget tokens of history,
// counted with the cl100k_base encoding.
func NewMemory(budget int) (*Memory, error) {
	if budget <= 0 {
		budget = DefaultHistoryTokens
	}
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Memory{codec: codec, budget: budget}, nil
}

// Add appends messages and trims the oldest ones to fit the budget.
func (m *Memory) Add(msgs ...Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.messages = append(m.messages, msg)
		m.tokens = append(m.tokens, m.count(msg.Content))
	}
	total := m.totalLocked()
	for total > m.budget && len(m.messages) > 0 {
		total -= m.tokens[0]
		m.messages = m.messages[1:]
		m.tokens = m.tokens[1:]
	}
	// A history must not start with an assistant turn.
	for len(m.messages) > 0 && m.messages[0].Role != "user" {
		m.messages = m.messages[1:]
		m.tokens = m.tokens[1:]
	}
}

// Messages returns a copy of the buffered history.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Tokens returns the token count of the buffered history.
func (m *Memory) Tokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

// Clear drops the whole history.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.tokens = nil
}

func (m *Memory) totalLocked() int {
	total := 0
	for _, n := range m.tokens {
		total += n
	}
	return total
}

func (m *Memory) count(s string) int {
	ids, _, err := m.codec.Encode(s)
	if err != nil {
		return len(s) / 4
	}
	return len(ids)
}
