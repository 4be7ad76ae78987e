package multisentence

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/analysis/fairness"
	"github.com/xkilldash9x/fairgraph/internal/fsutil"
	"github.com/xkilldash9x/fairgraph/internal/observability"
)

// CommandName labels metrics recorded by the pipeline.
const CommandName = "preprocess-multisentence"

// Stats counts what a pipeline run did.
type Stats struct {
	Blocks    int
	Failures  int
	Sentences int
	Kept      int
}

// Pipeline splits blocks concurrently and filters the sentences by keyword.
type Pipeline struct {
	splitter     *Splitter
	matcher      *fairness.KeywordMatcher
	concurrency  int
	blockTimeout time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithConcurrency bounds the number of blocks processed at once.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBlockTimeout gives every block a time budget. Zero disables it.
func WithBlockTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.blockTimeout = d }
}

// WithMetrics records per-block outcomes.
func WithMetrics(m *observability.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline wires a splitter to a keyword matcher.
func NewPipeline(splitter *Splitter, matcher *fairness.KeywordMatcher, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		splitter:    splitter,
		matcher:     matcher,
		concurrency: 1,
		logger:      logger.Named("multisentence.pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run splits every block and returns the kept sentences in block order, then
// part order. A block that fails or runs out of time contributes nothing.
func (p *Pipeline) Run(ctx context.Context, blocks []string) ([]schemas.Sentence, *Stats, error) {
	perBlock := make([][]string, len(blocks))
	failed := make([]bool, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, block := range blocks {
		g.Go(func() error {
			start := time.Now()
			bctx := gctx
			if p.blockTimeout > 0 {
				var cancel context.CancelFunc
				bctx, cancel = context.WithTimeout(gctx, p.blockTimeout)
				defer cancel()
			}

			parts, err := p.splitter.SplitBlock(bctx, i, block)
			if err != nil {
				outcome := observability.OutcomeDecodeErr
				if bctx.Err() != nil {
					outcome = observability.OutcomeTimeout
				}
				failed[i] = true
				p.logger.Warn("Failed to split graph block", zap.Int("block", i), zap.String("outcome", outcome), zap.Error(err))
				p.metrics.ObserveBlock(CommandName, outcome, time.Since(start))
				return nil
			}
			perBlock[i] = parts
			p.metrics.ObserveBlock(CommandName, observability.OutcomeSplit, time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("splitting interrupted: %w", err)
	}

	stats := &Stats{Blocks: len(blocks)}
	var kept []schemas.Sentence
	for i, parts := range perBlock {
		if failed[i] {
			stats.Failures++
			continue
		}
		stats.Sentences += len(parts)
		for pos, text := range parts {
			if p.matcher.Match(text) {
				kept = append(kept, schemas.Sentence{Block: i, Position: pos, AMR: text})
			}
		}
	}
	stats.Kept = len(kept)
	p.metrics.AddSentences(stats.Kept)
	return kept, stats, nil
}

// WriteSentences writes each sentence followed by a blank line.
func WriteSentences(w io.Writer, sentences []schemas.Sentence) error {
	for _, s := range sentences {
		if _, err := io.WriteString(w, strings.TrimSpace(s.AMR)+"\n\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteSentencesFile replaces path with the sentences once all of them are
// known.
func WriteSentencesFile(path string, sentences []schemas.Sentence) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return WriteSentences(w, sentences)
	})
}
