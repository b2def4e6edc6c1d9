package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

const agentAppName = "feed2context"

// BrowserExtractor drives a live Chromium page with a reasoning agent bound
// to it through page tools. Used for posts that only render inside a real
// browser (X).
type BrowserExtractor struct {
	open   OpenSession
	model  model.LLM
	logger *zap.Logger
}

func NewBrowserExtractor(open OpenSession, model model.LLM, logger *zap.Logger) *BrowserExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserExtractor{open: open, model: model, logger: logger}
}

func (e *BrowserExtractor) Extract(ctx context.Context, url string) (string, error) {
	sess, err := e.open(ctx, url)
	if err != nil {
		return "", types.NewExtractionError("", err)
	}
	defer sess.Close()

	toolset := newPageToolset(ctx, sess, e.logger)
	tools, err := toolset.AllTools()
	if err != nil {
		return "", types.NewExtractionError("", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "post_extractor",
		Model:       e.model,
		Description: "Reads a live social post page and reports the author and post text",
		Instruction: browserAgentInstruction,
		Tools:       tools,
	})
	if err != nil {
		return "", types.NewExtractionError("", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        agentAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return "", types.NewExtractionError("", err)
	}

	created, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName:   agentAppName,
		UserID:    "extractor",
		SessionID: uuid.NewString(),
		State:     map[string]any{},
	})
	if err != nil {
		return "", types.NewExtractionError("", err)
	}

	msg := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: browserTask(url)}},
	}

	var answer strings.Builder
	var transcript strings.Builder
	for event, err := range r.Run(ctx, "extractor", created.Session.ID(), msg, agent.RunConfig{}) {
		if err != nil {
			return "", types.NewExtractionError(transcript.String(), err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part.Text != "" {
				answer.WriteString(part.Text)
				transcript.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				e.logger.Debug("agent tool call",
					zap.String("url", url), zap.String("tool", part.FunctionCall.Name))
				transcript.WriteString("[call " + part.FunctionCall.Name + "]")
			}
			if part.FunctionResponse != nil {
				transcript.WriteString("[result " + part.FunctionResponse.Name + "]")
			}
		}
	}

	text := strings.TrimSpace(answer.String())
	if text == "" {
		return "", types.NewExtractionError(transcript.String(), errors.New("agent produced no post text"))
	}
	e.logger.Debug("browser extraction done", zap.String("url", url), zap.Int("chars", len(text)))
	return text, nil
}
