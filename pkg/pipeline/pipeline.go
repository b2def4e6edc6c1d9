// Package pipeline sequences source detection, extraction, query building,
// and research for one trigger request, and persists the outcome.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

// Extractor turns a post URL into plain post text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// QueryBuilder compresses post text and the user note into one query.
type QueryBuilder interface {
	Build(ctx context.Context, postText, userNote string) (string, error)
}

// Researcher answers a query with a web-grounded markdown report.
type Researcher interface {
	Research(ctx context.Context, query string) (string, error)
}

// Store persists completed reports.
type Store interface {
	Append(r *types.Report) error
}

// Deps wires the pipeline's collaborators. BrowserExtractor serves x posts;
// RemoteExtractor serves linkedin and, best effort, unknown sources.
type Deps struct {
	BrowserExtractor Extractor
	RemoteExtractor  Extractor
	Builder          QueryBuilder
	Researcher       Researcher
	Store            Store
	Logger           *zap.Logger
}

// Pipeline runs the full trigger workflow.
type Pipeline struct {
	browserExtractor Extractor
	remoteExtractor  Extractor
	builder          QueryBuilder
	researcher       Researcher
	store            Store
	logger           *zap.Logger
}

// New constructs the orchestration component.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		browserExtractor: deps.BrowserExtractor,
		remoteExtractor:  deps.RemoteExtractor,
		builder:          deps.Builder,
		researcher:       deps.Researcher,
		store:            deps.Store,
		logger:           logger,
	}
}

// Run executes one trigger. The first stage failure aborts the run; nothing
// is retried and nothing partial is persisted. On success the returned
// report is exactly the record appended to the store, timestamp included.
func (p *Pipeline) Run(ctx context.Context, url, note string) (*types.Report, error) {
	source := types.DetectSource(url)
	if source == types.SourceUnknown {
		p.logger.Warn("source is ambiguous, using remote extraction", zap.String("url", url))
	}
	p.logger.Info("pipeline started",
		zap.String("url", url), zap.String("source", string(source)))

	postText, err := p.extractorFor(source).Extract(ctx, url)
	if err != nil {
		return nil, stageFailure(types.StageExtraction, source, err)
	}

	query, err := p.builder.Build(ctx, postText, note)
	if err != nil {
		return nil, stageFailure(types.StageQueryBuild, source, err)
	}

	answer, err := p.researcher.Research(ctx, query)
	if err != nil {
		return nil, stageFailure(types.StageResearch, source, err)
	}

	report := &types.Report{
		PostURL:        url,
		UserNote:       note,
		Source:         source,
		PostText:       postText,
		Query:          query,
		CompoundAnswer: answer,
	}
	if err := p.store.Append(report); err != nil {
		return nil, stageFailure(types.StageStoreWrite, source, err)
	}

	p.logger.Info("pipeline finished",
		zap.String("url", url),
		zap.String("source", string(source)),
		zap.Int("answer_chars", len(answer)))
	return report, nil
}

func (p *Pipeline) extractorFor(source types.Source) Extractor {
	if source == types.SourceX {
		return p.browserExtractor
	}
	return p.remoteExtractor
}

// stageFailure tags err with the stage and the classified source. Stage
// components already return StageErrors; those keep their stage and raw
// output and only gain the source annotation.
func stageFailure(stage types.Stage, source types.Source, err error) error {
	var se *types.StageError
	if errors.As(err, &se) {
		se.Source = source
		return err
	}
	switch stage {
	case types.StageExtraction:
		se = types.NewExtractionError("", err)
	case types.StageQueryBuild:
		se = types.NewQueryBuildError("", err)
	case types.StageResearch:
		se = types.NewResearchError("", err)
	default:
		se = types.NewStoreWriteError(err)
	}
	se.Source = source
	return se
}
