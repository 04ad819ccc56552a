package llm

import (
	"context"
	"fmt"

	"notedev-server/internal/domain"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), generateConfig(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}

	result := &Result{Text: resp.Text()}
	if usage := resp.UsageMetadata; usage != nil {
		result.InputTokens = int(usage.PromptTokenCount)
		result.OutputTokens = int(usage.CandidatesTokenCount)
	}

	return result, nil
}

func (p *GeminiProvider) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	fragments := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(fragments)

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(req.Prompt), generateConfig(req)) {
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					errs <- fmt.Errorf("%w: %w", domain.ErrStreamAborted, ctxErr)
					return
				}
				errs <- fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}

			select {
			case fragments <- text:
			case <-ctx.Done():
				errs <- fmt.Errorf("%w: %w", domain.ErrStreamAborted, ctx.Err())
				return
			}
		}
	}()

	return fragments, errs
}

func generateConfig(req Request) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		MaxOutputTokens:   int32(maxTokens(req)),
	}
}
