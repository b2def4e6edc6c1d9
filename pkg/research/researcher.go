package research

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

// Researcher answers a query with the search-grounded model. The upstream
// call streams; the full answer is buffered before anyone sees it, so a
// mid-stream failure fails the whole run instead of persisting a torso.
type Researcher struct {
	gen    StreamGenerator
	model  string
	logger *zap.Logger
}

func NewResearcher(gen StreamGenerator, model string, logger *zap.Logger) *Researcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{gen: gen, model: model, logger: logger}
}

func (r *Researcher) Research(ctx context.Context, query string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.5),
		TopP:            genai.Ptr[float32](1),
		MaxOutputTokens: 2048,
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	answer, err := r.gen.GenerateStream(ctx, r.model, query, cfg)
	if err != nil {
		return "", types.NewResearchError("", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", types.NewResearchError(answer, errors.New("research returned no text"))
	}

	r.logger.Debug("research done", zap.Int("chars", len(answer)))
	return answer, nil
}
