package translator

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// GeminiBaseURL is Gemini's OpenAI-compatible chat completions endpoint.
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// ChatService talks to any OpenAI-compatible chat completions API through
// the openai-go SDK. Gemini is the default deployment.
type ChatService struct {
	name   string
	model  string
	client openai.Client
}

// NewChatService builds a chat backend. apiKey is required; baseURL may be
// empty for the OpenAI default.
func NewChatService(name, apiKey, baseURL, model string) (*ChatService, error) {
	return newChatService(name, apiKey, baseURL, model)
}

func newChatService(name, apiKey, baseURL, model string, extra ...option.RequestOption) (*ChatService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingCredential)
	}
	if model == "" {
		return nil, fmt.Errorf("%s: model is required", name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries belong to the orchestrator.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	return &ChatService{
		name:   name,
		model:  model,
		client: openai.NewClient(opts...),
	}, nil
}

func NewGeminiService(apiKey, model string) (*ChatService, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	return NewChatService("gemini", apiKey, GeminiBaseURL, model)
}

func NewOpenAIService(apiKey, baseURL, model string) (*ChatService, error) {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return NewChatService("openai", apiKey, baseURL, model)
}

func (s *ChatService) Name() string {
	return s.name
}

func (s *ChatService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(BuildSystemPrompt(req)),
			openai.UserMessage(req.Text),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}

	if len(resp.Choices) == 0 {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	result.TranslatedText = finishOutput(req, resp.Choices[0].Message.Content)
	if result.TranslatedText == "" {
		result.Error = "empty translation in response"
		return result, fmt.Errorf("empty translation in response")
	}

	result.Metadata = map[string]string{
		"model":             s.model,
		"finish_reason":     string(resp.Choices[0].FinishReason),
		"prompt_tokens":     fmt.Sprintf("%d", resp.Usage.PromptTokens),
		"completion_tokens": fmt.Sprintf("%d", resp.Usage.CompletionTokens),
	}

	return result, nil
}

func (s *ChatService) IsAvailable(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model); err != nil {
		return fmt.Errorf("%s not available: %w", s.name, err)
	}
	return nil
}
