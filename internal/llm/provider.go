// Package llm adapts text-generation backends to the two capabilities the
// transformation pipeline needs: a complete generation and a fragment stream.
package llm

import (
	"context"
	"fmt"
	"strings"
)

const DefaultMaxTokens = 4096

type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

func (r *Result) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider is a text-generation backend.
//
// GenerateStream returns a fragment channel that is closed when generation
// ends and an error channel that receives at most one error and is closed
// after the fragment channel. Fragments are delivered in provider order.
// Cancelling ctx abandons the stream; the producer stops and both channels
// are closed.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error)
}

type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama:
		return NewLangChainProvider(cfg)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func maxTokens(req Request) int {
	if req.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return req.MaxTokens
}
