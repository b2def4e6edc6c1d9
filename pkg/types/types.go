// Package types defines the core types shared across the feed2context pipeline.
package types

import (
	"strings"
	"time"
)

// Source identifies the platform a post URL was classified as.
type Source string

const (
	SourceLinkedIn Source = "linkedin"
	SourceX        Source = "x"
	SourceUnknown  Source = "unknown"
)

// DetectSource classifies a post URL by host substring. It is a pure
// function of the URL: "linkedin.com" wins, then either of the two
// microblogging hosts, otherwise SourceUnknown. Matching is
// case-insensitive. An unknown source is not an error; the pipeline still
// attempts a generic extraction for it.
func DetectSource(rawURL string) Source {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "linkedin.com"):
		return SourceLinkedIn
	case strings.Contains(u, "x.com"), strings.Contains(u, "twitter.com"):
		return SourceX
	default:
		return SourceUnknown
	}
}

// Report is the persisted record of one completed pipeline run.
//
// Field names are part of the on-disk JSONL format and of the /reports wire
// format; the notebook UI consumes them as-is.
type Report struct {
	Timestamp      time.Time `json:"timestamp"` // assigned by the store at append time, UTC
	PostURL        string    `json:"post_url"`
	UserNote       string    `json:"user_note"`
	Source         Source    `json:"source"`
	PostText       string    `json:"post_text"`
	Query          string    `json:"query"`
	CompoundAnswer string    `json:"compound_answer"` // markdown research answer
}
