package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linanwx/policychat/logger"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("no message provided")

// DefaultSystemPrompt steers the model towards the phrases the chat widget
// turns into structured controls.
const DefaultSystemPrompt = `You are the HR policy assistant for MPC Cloud Consulting employees.
Answer questions about company policies briefly and accurately. If you do not know, say so and suggest contacting hrsupport@mpccloudconsulting.com.
When an employee wants to apply for leave, ask exactly: "What type of leave would you like to apply for?"
After they pick a leave type, ask them to "select the date" or range of their leave.
When an employee wants to claim an expense, ask exactly: "What category does this expense fall under?"
After they name the category, ask them to "upload a photo or PDF" of the receipt.
A message starting with "receipt_uploaded:" means the receipt was uploaded to the given path.`

// Options configures an Assistant.
type Options struct {
	SystemPrompt  string
	FAQ           FAQ
	FAQThreshold  float64
	HistoryTokens int
	Policies      *Index // optional; passages are added to the system prompt
	RetrieveK     int
}

// Assistant answers questions with a FAQ lookup followed by the LLM grounded
// on retrieved policy passages, keeping a shared conversation memory.
type Assistant struct {
	provider Provider
	opts     Options
	memory   *Memory
}

// New creates an assistant backed by provider.
func New(provider Provider, opts Options) (*Assistant, error) {
	if provider == nil {
		return nil, errors.New("assistant: provider is required")
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.FAQThreshold <= 0 {
		opts.FAQThreshold = DefaultFAQThreshold
	}
	if opts.RetrieveK <= 0 {
		opts.RetrieveK = DefaultRetrieveK
	}
	memory, err := NewMemory(opts.HistoryTokens)
	if err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}
	return &Assistant{provider: provider, opts: opts, memory: memory}, nil
}

// PolicyPassages returns the number of indexed policy passages.
func (a *Assistant) PolicyPassages() int {
	return a.opts.Policies.Len()
}

// Answer replies to query.
func (a *Assistant) Answer(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyMessage
	}

	if answer, score, ok := a.opts.FAQ.Match(query, a.opts.FAQThreshold); ok {
		logger.Info("faq answer", "score", fmt.Sprintf("%.2f", score), "queryChars", len(query))
		return answer, nil
	}

	start := time.Now()
	passages := a.opts.Policies.Search(query, a.opts.RetrieveK)
	if len(passages) > 0 {
		logger.Debug("policy passages retrieved", "count", len(passages), "top", passages[0].Source,
			"score", fmt.Sprintf("%.2f", passages[0].Score))
	}
	history := a.memory.Messages()
	req := &Request{
		System:   withPassages(a.opts.SystemPrompt, passages),
		Messages: append(history, UserMessage(query)),
	}
	resp, err := a.provider.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("assistant: %w", err)
	}
	a.memory.Add(UserMessage(query), AssistantMessage(resp.Content))
	logger.Info(
		"assistant answer",
		"historyMessages", len(history),
		"historyTokens", a.memory.Tokens(),
		"passages", len(passages),
		"outputChars", len(resp.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return resp.Content, nil
}

// Reset forgets the conversation.
func (a *Assistant) Reset() {
	a.memory.Clear()
	logger.Info("assistant memory cleared")
}

// Memory exposes the conversation buffer.
func (a *Assistant) Memory() *Memory { return a.memory }
