package llm

import (
	"context"

	"github.com/mojisejr/oeng-api/internal/shared/config"
)

// Service wraps an LLM provider for dependency injection.
type Service struct {
	provider Provider
}

// NewService creates the LLM service from app config.
func NewService(cfg *config.Config) (*Service, error) {
	provider, err := NewProvider(&ProviderConfig{
		Type:        ProviderType(cfg.LLMProvider),
		GeminiKey:   cfg.GeminiKey,
		OpenAIKey:   cfg.OpenAIKey,
		Model:       cfg.LLMModel,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	return &Service{provider: provider}, nil
}

// NewServiceWithProvider creates service with a custom provider (for testing)
func NewServiceWithProvider(provider Provider) *Service {
	return &Service{provider: provider}
}

// GenerateResponse generates AI response
func (s *Service) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return s.provider.GenerateResponse(ctx, systemPrompt, userMessage)
}

// GetProviderName returns current provider name
func (s *Service) GetProviderName() string {
	return s.provider.GetProviderName()
}
