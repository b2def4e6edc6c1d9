// Package research compresses a post and a user note into one research query,
// then answers it with a streamed web-search model call.
package research

import (
	"context"

	"google.golang.org/genai"
)

// Generator is the single-call model surface the query builder needs.
// *llm.Provider implements it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// StreamGenerator is the streamed surface the researcher needs. Chunks are
// buffered by the provider; callers only ever see the complete text.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// queryBuilderInstruction is the system prompt for the query compression call.
const queryBuilderInstruction = `You are QueryBuilder. Build one detailed but concise research query from the extracted post text and user note.
Inputs:
- post_text: extracted social post text (LinkedIn or X)
- user_note: user's intent
Process:
- Identify entities and intent from post_text and user_note
- Compose a single concise research query (<= 50 words)
Output:
Return ONLY JSON: {"query": "..."}
No markdown or extra text.`
