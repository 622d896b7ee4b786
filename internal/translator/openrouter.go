package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/option"
)

const (
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"
)

// OpenRouterService is the chat backend pointed at OpenRouter's
// OpenAI-compatible API, identified to OpenRouter by the X-Title header.
type OpenRouterService struct {
	*ChatService
}

func NewOpenRouterService(apiKey, baseURL, model string) (*OpenRouterService, error) {
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}

	chat, err := newChatService("openrouter", apiKey, strings.TrimRight(baseURL, "/")+"/", model,
		option.WithHeader("X-Title", "novelsync"))
	if err != nil {
		return nil, err
	}
	return &OpenRouterService{ChatService: chat}, nil
}

// IsAvailable lists models: OpenRouter model IDs contain slashes and have no
// single-model lookup.
func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenRouter not available: %w", err)
	}
	return nil
}
