// Package llm wraps the Gemini API behind the small surface the pipeline
// stages need: one-shot generation and buffered streamed generation.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config holds configuration for the Gemini provider.
type Config struct {
	APIKey string // if empty, uses GOOGLE_API_KEY env var
}

// Provider is a thin Gemini client shared by every pipeline stage; the
// stage picks the model name and generation config per call.
type Provider struct {
	client *genai.Client
	logger *zap.Logger
}

// NewProvider creates a Gemini-backed provider.
func NewProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Provider{client: client, logger: logger}, nil
}

// Generate produces a complete response for one prompt.
func (p *Provider) Generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := textFrom(resp)
	if text == "" {
		return "", fmt.Errorf("no response from gemini")
	}
	return text, nil
}

// GenerateStream produces a response delivered in chunks and returns it
// fully buffered. Callers never see partial output; a transport error
// mid-stream fails the whole call.
func (p *Provider) GenerateStream(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	var buf strings.Builder
	for chunk, err := range p.client.Models.GenerateContentStream(ctx, model, genai.Text(prompt), config) {
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		buf.WriteString(textFrom(chunk))
	}

	text := buf.String()
	p.logger.Debug("gemini stream complete", zap.String("model", model), zap.Int("chars", len(text)))
	return text, nil
}

func textFrom(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var result string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result += part.Text
		}
	}
	return result
}
