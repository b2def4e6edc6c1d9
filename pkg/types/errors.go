package types

import (
	"fmt"
	"strings"
)

// Stage names the pipeline step a failure belongs to.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageQueryBuild Stage = "query_build"
	StageResearch   Stage = "research"
	StageStoreWrite Stage = "store_write"
)

// StageError is the structured failure surfaced for a pipeline run. The
// first failing stage aborts the whole run; nothing is retried and no
// partial report is stored. Raw keeps the unparsed upstream output (model
// text, agent transcript) for diagnosis when one is available.
type StageError struct {
	Stage  Stage
	Source Source // classified source of the failed run; set by the orchestrator
	Raw    string
	Err    error
}

// NewExtractionError reports a failure to obtain post text from a URL.
func NewExtractionError(raw string, err error) *StageError {
	return &StageError{Stage: StageExtraction, Raw: raw, Err: err}
}

// NewQueryBuildError reports a failure to derive a research query.
func NewQueryBuildError(raw string, err error) *StageError {
	return &StageError{Stage: StageQueryBuild, Raw: raw, Err: err}
}

// NewResearchError reports a failure to produce a research answer.
func NewResearchError(raw string, err error) *StageError {
	return &StageError{Stage: StageResearch, Raw: raw, Err: err}
}

// NewStoreWriteError reports a failure to persist a completed report.
func NewStoreWriteError(err error) *StageError {
	return &StageError{Stage: StageStoreWrite, Err: err}
}

func (e *StageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Stage)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Source == SourceUnknown {
		b.WriteString(" (source=unknown)")
	}
	return b.String()
}

func (e *StageError) Unwrap() error { return e.Err }
