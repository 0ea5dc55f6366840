package config

import (
	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/cue"
	"github.com/linanwx/policychat/pipeline"
)

const (
	defaultServerAddr           = "127.0.0.1:5000"
	defaultServerURL            = "http://" + defaultServerAddr
	defaultWelcome              = "Welcome Employee,\n How can I help you with MPC policies today?"
	defaultRevealIntervalMs     = 20
	defaultTimeoutSeconds       = 60
	defaultUploadTimeoutSeconds = 120
	defaultUploadDir            = "uploads"
	defaultMaxUploadMB          = 10
	defaultRetentionHours       = 72
	defaultSweepCron            = "@hourly"
	defaultProvider             = "mock"
	defaultMaxTokens            = 512
	defaultTemperature          = 0.2
	defaultPolicyDir            = "policies"
)

var defaultSuggestions = []string{"Leave Policy", "Dress Code", "Office Timings"}

var defaultAllowedOrigins = []string{"http://localhost:8000", "http://127.0.0.1:8000"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	render := true
	return &Config{
		Widget: WidgetConfig{
			ServerURL:            defaultServerURL,
			Welcome:              defaultWelcome,
			Suggestions:          append([]string(nil), defaultSuggestions...),
			RevealIntervalMs:     defaultRevealIntervalMs,
			TimeoutSeconds:       defaultTimeoutSeconds,
			UploadTimeoutSeconds: defaultUploadTimeoutSeconds,
			FallbackReply:        pipeline.DefaultFallbackReply,
			RenderMarkdown:       &render,
		},
		Cues: cue.Default(),
		Server: ServerConfig{
			Addr:                 defaultServerAddr,
			AllowedOrigins:       append([]string(nil), defaultAllowedOrigins...),
			UploadDir:            defaultUploadDir,
			MaxUploadMB:          defaultMaxUploadMB,
			UploadRetentionHours: defaultRetentionHours,
			SweepCron:            defaultSweepCron,
		},
		Assistant: AssistantConfig{
			Provider:      defaultProvider,
			MaxTokens:     defaultMaxTokens,
			Temperature:   defaultTemperature,
			SystemPrompt:  assistant.DefaultSystemPrompt,
			HistoryTokens: assistant.DefaultHistoryTokens,
			FAQ:           assistant.DefaultFAQ(),
			FAQThreshold:  assistant.DefaultFAQThreshold,
			PolicyDir:     defaultPolicyDir,
			RetrieveK:     assistant.DefaultRetrieveK,
			ChunkChars:    assistant.DefaultChunkChars,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  true,
		File:    "logs/policychat.log",
	}
}

func (c *Config) applyDefaults() {
	w := &c.Widget
	if w.ServerURL == "" {
		w.ServerURL = defaultServerURL
	}
	if w.Welcome == "" {
		w.Welcome = defaultWelcome
	}
	if w.Suggestions == nil {
		w.Suggestions = append([]string(nil), defaultSuggestions...)
	}
	if w.RevealIntervalMs <= 0 {
		w.RevealIntervalMs = defaultRevealIntervalMs
	}
	if w.TimeoutSeconds <= 0 {
		w.TimeoutSeconds = defaultTimeoutSeconds
	}
	if w.UploadTimeoutSeconds <= 0 {
		w.UploadTimeoutSeconds = defaultUploadTimeoutSeconds
	}
	if w.FallbackReply == "" {
		w.FallbackReply = pipeline.DefaultFallbackReply
	}

	if len(c.Cues) == 0 {
		c.Cues = cue.Default()
	}

	s := &c.Server
	if s.Addr == "" {
		s.Addr = defaultServerAddr
	}
	if s.AllowedOrigins == nil {
		s.AllowedOrigins = append([]string(nil), defaultAllowedOrigins...)
	}
	if s.UploadDir == "" {
		s.UploadDir = defaultUploadDir
	}
	if s.MaxUploadMB <= 0 {
		s.MaxUploadMB = defaultMaxUploadMB
	}
	if s.UploadRetentionHours <= 0 {
		s.UploadRetentionHours = defaultRetentionHours
	}
	if s.SweepCron == "" {
		s.SweepCron = defaultSweepCron
	}

	a := &c.Assistant
	if a.Provider == "" {
		a.Provider = defaultProvider
	}
	if a.MaxTokens <= 0 {
		a.MaxTokens = defaultMaxTokens
	}
	if a.Temperature == 0 {
		a.Temperature = defaultTemperature
	}
	if a.SystemPrompt == "" {
		a.SystemPrompt = assistant.DefaultSystemPrompt
	}
	if a.HistoryTokens <= 0 {
		a.HistoryTokens = assistant.DefaultHistoryTokens
	}
	if a.FAQ == nil {
		a.FAQ = assistant.DefaultFAQ()
	}
	if a.FAQThreshold <= 0 || a.FAQThreshold > 1 {
		a.FAQThreshold = assistant.DefaultFAQThreshold
	}
	if a.PolicyDir == "" {
		a.PolicyDir = defaultPolicyDir
	}
	if a.RetrieveK <= 0 {
		a.RetrieveK = assistant.DefaultRetrieveK
	}
	if a.ChunkChars <= 0 {
		a.ChunkChars = assistant.DefaultChunkChars
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}

	hasAny := c.Logging.Level != "" || c.Logging.File != "" || c.Logging.Stdout
	if c.Logging.Enabled == nil && hasAny {
		enabled := true
		c.Logging.Enabled = &enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.Stdout = def.Stdout
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
