package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/muratcankoylan/feed2context/pkg/llm"
	"github.com/muratcankoylan/feed2context/pkg/types"
)

// Builder compresses post text and the user's note into one research query.
type Builder struct {
	gen    Generator
	model  string
	logger *zap.Logger
}

func NewBuilder(gen Generator, model string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{gen: gen, model: model, logger: logger}
}

type queryInputs struct {
	PostText string `json:"post_text"`
	UserNote string `json:"user_note"`
}

type queryPayload struct {
	Query string `json:"query"`
}

func (b *Builder) Build(ctx context.Context, postText, userNote string) (string, error) {
	user, err := json.Marshal(queryInputs{PostText: postText, UserNote: userNote})
	if err != nil {
		return "", types.NewQueryBuildError("", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: queryBuilderInstruction}},
		},
	}

	raw, err := b.gen.Generate(ctx, b.model, string(user), cfg)
	if err != nil {
		return "", types.NewQueryBuildError("", err)
	}

	var payload queryPayload
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &payload); err != nil {
		b.logger.Warn("query builder returned unusable output", zap.Error(err))
		return "", types.NewQueryBuildError(raw, fmt.Errorf("model output is not the expected JSON: %w", err))
	}
	query := strings.TrimSpace(payload.Query)
	if query == "" {
		return "", types.NewQueryBuildError(raw, errors.New("model output has no query"))
	}

	b.logger.Debug("query built", zap.String("query", query))
	return query, nil
}
