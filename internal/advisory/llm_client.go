package advisory

import (
	"context"
	"fmt"

	"github.com/mindharmony/mindharmony/internal/llm"
)

// Purpose is the event-log label attached to advisory LLM calls.
const Purpose = "advisory"

// LLMConfig tunes generation.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultLLMConfig returns sensible generation defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// LLMClient implements Client on top of an llm.Provider.
type LLMClient struct {
	provider llm.Provider
	cfg      LLMConfig
}

// NewLLMClient creates an LLMClient.
func NewLLMClient(provider llm.Provider, cfg LLMConfig) *LLMClient {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultLLMConfig().MaxTokens
	}
	return &LLMClient{provider: provider, cfg: cfg}
}

// Analyze asks the provider for an Analysis of req.
func (c *LLMClient) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid advisory request: %w", err)
	}

	ctx = llm.WithPurpose(ctx, Purpose)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req)},
		},
		Schema:      AnalysisSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("advisory generation failed: %w", err)
	}

	return Parse(resp.Content)
}
