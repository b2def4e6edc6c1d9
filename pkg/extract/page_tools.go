package extract

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// pageToolset binds the agent tools to one live page session. The session
// and the request context are fixed for the single run the toolset serves,
// so handlers use the captured context rather than the tool's.
type pageToolset struct {
	ctx    context.Context
	sess   PageSession
	logger *zap.Logger
}

func newPageToolset(ctx context.Context, sess PageSession, logger *zap.Logger) *pageToolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pageToolset{ctx: ctx, sess: sess, logger: logger}
}

// ReadPageInput is the input.
type ReadPageInput struct {
	// Optional cap on returned characters. Default and maximum 8000.
	MaxChars int `json:"max_chars,omitempty"`
}

// ReadPageOutput is the rendered page view handed back to the agent.
type ReadPageOutput struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
	Truncated   bool   `json:"truncated,omitempty"`
}

const maxPageRunes = 8000

func (pt *pageToolset) readPage(input ReadPageInput) (ReadPageOutput, error) {
	text, err := pt.sess.Text(pt.ctx)
	if err != nil {
		return ReadPageOutput{}, err
	}

	out := ReadPageOutput{Text: text}
	if meta, err := pt.sess.Meta(pt.ctx); err == nil {
		out.Title = meta.Title
		out.Author = meta.Author
		out.Description = meta.Description
	}

	limit := input.MaxChars
	if limit <= 0 || limit > maxPageRunes {
		limit = maxPageRunes
	}
	if runes := []rune(out.Text); len(runes) > limit {
		out.Text = string(runes[:limit])
		out.Truncated = true
	}

	pt.logger.Debug("read_page",
		zap.Int("chars", len(out.Text)), zap.Bool("truncated", out.Truncated))
	return out, nil
}

// ReadPageTool creates the read_page tool.
func (pt *pageToolset) ReadPageTool() (tool.Tool, error) {
	handler := func(_ tool.Context, input ReadPageInput) (ReadPageOutput, error) {
		return pt.readPage(input)
	}
	return functiontool.New(functiontool.Config{
		Name:        "read_page",
		Description: "Read the rendered text of the post page, plus its title and OpenGraph metadata.",
	}, handler)
}

// WaitInput is the input.
type WaitInput struct {
	// Seconds to pause before re-reading; default 2, capped at 10.
	Seconds float64 `json:"seconds,omitempty"`
}

// WaitOutput is the output.
type WaitOutput struct {
	WaitedSeconds float64 `json:"waited_seconds"`
}

func (pt *pageToolset) wait(input WaitInput) (WaitOutput, error) {
	secs := input.Seconds
	if secs <= 0 {
		secs = 2
	}
	if secs > 10 {
		secs = 10
	}
	if err := pt.sess.WaitQuiet(pt.ctx, time.Duration(secs*float64(time.Second))); err != nil {
		return WaitOutput{}, err
	}
	return WaitOutput{WaitedSeconds: secs}, nil
}

// WaitTool creates the wait tool.
func (pt *pageToolset) WaitTool() (tool.Tool, error) {
	handler := func(_ tool.Context, input WaitInput) (WaitOutput, error) {
		return pt.wait(input)
	}
	return functiontool.New(functiontool.Config{
		Name:        "wait",
		Description: "Wait a few seconds for dynamic content to finish loading, then settle.",
	}, handler)
}

// AllTools returns all page tools.
func (pt *pageToolset) AllTools() ([]tool.Tool, error) {
	readTool, err := pt.ReadPageTool()
	if err != nil {
		return nil, err
	}
	waitTool, err := pt.WaitTool()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{readTool, waitTool}, nil
}
