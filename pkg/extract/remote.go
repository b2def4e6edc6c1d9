package extract

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

// RemoteExtractor fetches the post in a single Gemini call with the
// URL-context and search tools enabled, so the model visits the page itself.
// Works for LinkedIn and is the generic best effort for unknown sources.
type RemoteExtractor struct {
	gen    Generator
	model  string
	logger *zap.Logger
}

func NewRemoteExtractor(gen Generator, model string, logger *zap.Logger) *RemoteExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteExtractor{gen: gen, model: model, logger: logger}
}

func (e *RemoteExtractor) Extract(ctx context.Context, url string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: remoteInstruction}},
		},
		Tools: []*genai.Tool{
			{URLContext: &genai.URLContext{}},
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	raw, err := e.gen.Generate(ctx, e.model, url, cfg)
	if err != nil {
		return "", types.NewExtractionError("", err)
	}

	text, err := parsePostText(raw)
	if err != nil {
		e.logger.Warn("remote extraction returned unusable output",
			zap.String("url", url), zap.Error(err))
		return "", types.NewExtractionError(raw, err)
	}
	e.logger.Debug("remote extraction done", zap.String("url", url), zap.Int("chars", len(text)))
	return text, nil
}
