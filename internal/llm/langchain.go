package llm

import (
	"context"
	"fmt"
	"strings"

	"notedev-server/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainProvider drives any langchaingo model. Anthropic, OpenAI and
// Ollama backends are built from Config.
type LangChainProvider struct {
	model llms.Model
}

func NewLangChainProvider(cfg Config) (*LangChainProvider, error) {
	var (
		model llms.Model
		err   error
	)

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model, err = ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(baseURL))
	default:
		return nil, fmt.Errorf("provider %q is not served by langchaingo", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s model: %w", cfg.Provider, err)
	}

	return NewLangChainProviderWithModel(model), nil
}

func NewLangChainProviderWithModel(model llms.Model) *LangChainProvider {
	return &LangChainProvider{model: model}
}

func (p *LangChainProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := p.model.GenerateContent(ctx, messages(req), llms.WithMaxTokens(maxTokens(req)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrProviderFailure)
	}

	var (
		text   strings.Builder
		result Result
	)
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		text.WriteString(choice.Content)
		result.InputTokens += intFromInfo(choice.GenerationInfo, "InputTokens", "PromptTokens")
		result.OutputTokens += intFromInfo(choice.GenerationInfo, "OutputTokens", "CompletionTokens")
	}
	result.Text = text.String()

	return &result, nil
}

func (p *LangChainProvider) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	fragments := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(fragments)

		_, err := p.model.GenerateContent(ctx, messages(req),
			llms.WithMaxTokens(maxTokens(req)),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				select {
				case fragments <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				errs <- fmt.Errorf("%w: %w", domain.ErrStreamAborted, ctxErr)
				return
			}
			errs <- fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
		}
	}()

	return fragments, errs
}

func messages(req Request) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}
}

// intFromInfo reads the first numeric value found under keys. Backends
// report usage under different names and numeric types.
func intFromInfo(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
