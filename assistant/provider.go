// Package assistant answers employee policy questions. Replies come from a
// manual FAQ table when a question is close enough to a known one, and from
// the configured LLM provider otherwise.
package assistant

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a chat completion request.
type Request struct {
	System   string
	Messages []Message
}

// Message represents one conversation turn.
type Message struct {
	Role    string `json:"role" yaml:"role"` // user, assistant
	Content string `json:"content" yaml:"content"`
}

// Response represents a chat completion response.
type Response struct {
	Content string
	Usage   Usage
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// Settings are the runtime settings of a provider.
type Settings struct {
	APIKey      string
	APIBase     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ProviderConstructor builds a provider from resolved settings.
type ProviderConstructor func(s Settings) (Provider, error)

// ProviderRegistration defines metadata and constructor for a provider.
type ProviderRegistration struct {
	DefaultModel string
	EnvKey       string // consulted when no API key is configured
	EnvBase      string
	NeedsKey     bool
	Constructor  ProviderConstructor
}

var providerRegistry = map[string]ProviderRegistration{}

// RegisterProvider registers provider metadata and constructor.
func RegisterProvider(name string, reg ProviderRegistration) {
	name = strings.TrimSpace(name)
	if name == "" || reg.Constructor == nil {
		return
	}
	reg.EnvKey = strings.TrimSpace(reg.EnvKey)
	reg.EnvBase = strings.TrimSpace(reg.EnvBase)
	providerRegistry[name] = reg
}

// SupportedProviders returns all registered provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the model used by a provider when none is configured.
func DefaultModel(name string) string {
	return providerRegistry[name].DefaultModel
}

// KeyEnv returns the environment variable holding the provider's API key,
// or "" when the provider needs no key.
func KeyEnv(name string) string {
	reg := providerRegistry[name]
	if !reg.NeedsKey {
		return ""
	}
	return reg.EnvKey
}

// NewProvider builds the named provider. Empty settings fall back to the
// provider's environment variables and default model.
func NewProvider(name string, s Settings) (Provider, error) {
	reg, ok := providerRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(SupportedProviders(), ", "))
	}
	if s.APIKey == "" && reg.EnvKey != "" {
		s.APIKey = os.Getenv(reg.EnvKey)
	}
	if s.APIBase == "" && reg.EnvBase != "" {
		s.APIBase = os.Getenv(reg.EnvBase)
	}
	if s.Model == "" {
		s.Model = reg.DefaultModel
	}
	if reg.NeedsKey && s.APIKey == "" {
		return nil, fmt.Errorf("provider %s: API key not configured (set assistant.apiKey or %s)", name, reg.EnvKey)
	}
	return reg.Constructor(s)
}
