// Package extract obtains the plain text of a social post from its URL.
// Two strategies exist: a remote fetch through the Gemini URL-context tool,
// and a driven Chromium session read by an ADK agent for pages that only
// render behind a real browser.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/muratcankoylan/feed2context/pkg/browser"
	"github.com/muratcankoylan/feed2context/pkg/llm"
)

// Extractor turns a post URL into the post's plain text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Generator is the single-call model surface the remote extractor needs.
// *llm.Provider implements it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// PageSession is the live-page surface the browser extractor drives.
// *browser.Session implements it.
type PageSession interface {
	Text(ctx context.Context) (string, error)
	Meta(ctx context.Context) (browser.Meta, error)
	WaitQuiet(ctx context.Context, d time.Duration) error
	Close() error
}

// OpenSession opens a live page session navigated to url.
type OpenSession func(ctx context.Context, url string) (PageSession, error)

type postTextPayload struct {
	PostText string `json:"post_text"`
}

// parsePostText decodes the strict JSON contract of the remote extractor.
func parsePostText(raw string) (string, error) {
	cleaned := llm.CleanJSON(raw)

	var payload postTextPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return "", fmt.Errorf("model output is not the expected JSON: %w", err)
	}
	text := strings.TrimSpace(payload.PostText)
	if text == "" {
		return "", errors.New("model output has no post_text")
	}
	return text, nil
}
