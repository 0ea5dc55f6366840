package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/linanwx/policychat/logger"
)

const defaultAnthropicMaxTokens = 1024

func init() {
	RegisterProvider("anthropic", ProviderRegistration{
		DefaultModel: "claude-3-5-haiku-latest",
		EnvKey:       "ANTHROPIC_API_KEY",
		EnvBase:      "ANTHROPIC_API_BASE",
		NeedsKey:     true,
		Constructor: func(s Settings) (Provider, error) {
			return newAnthropicProvider(s), nil
		},
	})
}

// AnthropicProvider implements Provider with the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
}

func newAnthropicProvider(s Settings) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(sdkMaxRetries),
	}
	if s.APIBase != "" {
		opts = append(opts, option.WithBaseURL(s.APIBase))
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicProvider{
		client:      anthropic.NewClient(opts...),
		model:       s.Model,
		maxTokens:   maxTokens,
		temperature: s.Temperature,
	}
}

// Chat sends a message request.
func (p *AnthropicProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)}
		switch m.Role {
		case "user":
			messages = append(messages, anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: block})
		case "assistant":
			messages = append(messages, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: block})
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if p.temperature != 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	logger.Info("anthropic request", "model", p.model, "messages", len(messages), "inputChars", inputChars(req))

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("anthropic request error", "model", p.model, "err", err)
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	logger.Info(
		"anthropic response",
		"model", p.model,
		"stopReason", resp.StopReason,
		"inputTokens", resp.Usage.InputTokens,
		"outputTokens", resp.Usage.OutputTokens,
		"outputChars", len(content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}
