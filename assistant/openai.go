package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linanwx/policychat/logger"
	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	openAIAPIBase   = "https://api.openai.com/v1"
	togetherAPIBase = "https://api.together.xyz/v1"
	sdkMaxRetries   = 2
)

func init() {
	RegisterProvider("openai", ProviderRegistration{
		DefaultModel: "gpt-4o-mini",
		EnvKey:       "OPENAI_API_KEY",
		EnvBase:      "OPENAI_API_BASE",
		NeedsKey:     true,
		Constructor: func(s Settings) (Provider, error) {
			return newOpenAIProvider("openai", openAIAPIBase, s), nil
		},
	})

	RegisterProvider("together", ProviderRegistration{
		DefaultModel: "mistralai/Mistral-7B-Instruct-v0.2",
		EnvKey:       "TOGETHERAI_API_KEY",
		EnvBase:      "TOGETHERAI_API_BASE",
		NeedsKey:     true,
		Constructor: func(s Settings) (Provider, error) {
			return newOpenAIProvider("together", togetherAPIBase, s), nil
		},
	})
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	providerName string
	apiBase      string
	modelName    string
	maxTokens    int
	temperature  float64
	client       openai.Client
}

func newOpenAIProvider(providerName, defaultBase string, s Settings) *OpenAIProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(s.APIBase), "/")
	if baseURL == "" {
		baseURL = defaultBase
	}
	baseURL = strings.TrimSuffix(baseURL, "/chat/completions")

	client := openai.NewClient(
		oaioption.WithAPIKey(s.APIKey),
		oaioption.WithBaseURL(baseURL),
		oaioption.WithMaxRetries(sdkMaxRetries),
	)

	return &OpenAIProvider{
		providerName: providerName,
		apiBase:      baseURL,
		modelName:    s.Model,
		maxTokens:    s.MaxTokens,
		temperature:  s.Temperature,
		client:       client,
	}
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "user":
			messages = append(messages, openai.UserMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		}
	}

	logger.Info(
		"openai request",
		"provider", p.providerName,
		"modelName", p.modelName,
		"messages", len(messages),
		"inputChars", inputChars(req),
	)

	chatReq := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.modelName),
		Messages: messages,
	}
	if p.maxTokens > 0 {
		chatReq.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if p.temperature != 0 {
		chatReq.Temperature = openai.Float(p.temperature)
	}

	chatResp, err := p.client.Chat.Completions.New(ctx, chatReq)
	if err != nil {
		logger.Error("openai request error", "provider", p.providerName, "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		logger.Error("openai no choices", "provider", p.providerName)
		return nil, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]
	logger.Info(
		"openai response",
		"provider", p.providerName,
		"modelName", p.modelName,
		"finishReason", choice.FinishReason,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
		"outputChars", len(choice.Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     int(chatResp.Usage.PromptTokens),
			CompletionTokens: int(chatResp.Usage.CompletionTokens),
			TotalTokens:      int(chatResp.Usage.TotalTokens),
		},
	}, nil
}

func inputChars(req *Request) int {
	n := len(req.System)
	for _, m := range req.Messages {
		n += len(m.Content)
	}
	return n
}
