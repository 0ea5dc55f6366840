// Package config handles configuration loading and saving.
package config

import (
	"strings"
	"time"

	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/cue"
)

const (
	configFileName = "config.yaml"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Widget    WidgetConfig    `json:"widget" yaml:"widget"`
	Cues      cue.Table       `json:"cues,omitempty" yaml:"cues,omitempty"` // ordered, first match wins
	Server    ServerConfig    `json:"server" yaml:"server"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant"`
	Logging   LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// WidgetConfig configures the chat widget.
type WidgetConfig struct {
	ServerURL            string   `json:"serverURL" yaml:"serverURL"`
	Welcome              string   `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Suggestions          []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	RevealIntervalMs     int      `json:"revealIntervalMs,omitempty" yaml:"revealIntervalMs,omitempty"`         // per character, defaults to 20
	TimeoutSeconds       int      `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`             // per /chat request, defaults to 60
	UploadTimeoutSeconds int      `json:"uploadTimeoutSeconds,omitempty" yaml:"uploadTimeoutSeconds,omitempty"` // defaults to 120
	FallbackReply        string   `json:"fallbackReply,omitempty" yaml:"fallbackReply,omitempty"`
	RenderMarkdown       *bool    `json:"renderMarkdown,omitempty" yaml:"renderMarkdown,omitempty"` // defaults to true
}

// ServerConfig configures the assistant endpoint.
type ServerConfig struct {
	Addr                 string   `json:"addr" yaml:"addr"`
	AllowedOrigins       []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
	UploadDir            string   `json:"uploadDir,omitempty" yaml:"uploadDir,omitempty"` // relative to the config dir
	MaxUploadMB          int      `json:"maxUploadMB,omitempty" yaml:"maxUploadMB,omitempty"`
	UploadRetentionHours int      `json:"uploadRetentionHours,omitempty" yaml:"uploadRetentionHours,omitempty"`
	SweepCron            string   `json:"sweepCron,omitempty" yaml:"sweepCron,omitempty"`
}

// AssistantConfig configures how the endpoint answers.
type AssistantConfig struct {
	Provider      string        `json:"provider" yaml:"provider"` // openai, together, anthropic, mock
	Model         string        `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey        string        `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase       string        `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	MaxTokens     int           `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature   float64       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	SystemPrompt  string        `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	HistoryTokens int           `json:"historyTokens,omitempty" yaml:"historyTokens,omitempty"`
	FAQ           assistant.FAQ `json:"faq,omitempty" yaml:"faq,omitempty"`
	FAQThreshold  float64       `json:"faqThreshold,omitempty" yaml:"faqThreshold,omitempty"`
	PolicyDir     string        `json:"policyDir,omitempty" yaml:"policyDir,omitempty"` // relative to the config dir
	RetrieveK     int           `json:"retrieveK,omitempty" yaml:"retrieveK,omitempty"`
	ChunkChars    int           `json:"chunkChars,omitempty" yaml:"chunkChars,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stdout
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
}

// RevealInterval returns the per-character reveal period.
func (w WidgetConfig) RevealInterval() time.Duration {
	return time.Duration(w.RevealIntervalMs) * time.Millisecond
}

// Timeout returns the /chat request timeout.
func (w WidgetConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the /upload request timeout.
func (w WidgetConfig) UploadTimeout() time.Duration {
	return time.Duration(w.UploadTimeoutSeconds) * time.Second
}

// MarkdownEnabled reports whether replies are rendered from Markdown.
func (w WidgetConfig) MarkdownEnabled() bool {
	return w.RenderMarkdown == nil || *w.RenderMarkdown
}

// MaxUploadBytes returns the upload size limit.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// UploadRetention returns how long uploads are kept.
func (s ServerConfig) UploadRetention() time.Duration {
	return time.Duration(s.UploadRetentionHours) * time.Hour
}
