package llm

import "strings"

// CleanJSON strips the markdown code fences models like to wrap JSON in.
// If the result still does not start with a brace, it falls back to the
// outermost {...} window in the raw text. It never validates; callers must
// still unmarshal and reject output that is not the JSON they asked for.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
