package centrality

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/xkilldash9x/fairgraph/api/schemas"
)

// Stats summarises the scores of one batch.
type Stats struct {
	Blocks   int     `json:"blocks" yaml:"blocks"`
	Failures int     `json:"failures" yaml:"failures"`
	Scored   int     `json:"scored" yaml:"scored"`
	Mean     float64 `json:"mean" yaml:"mean"`
	StdDev   float64 `json:"stddev" yaml:"stddev"`
	Max      float64 `json:"max" yaml:"max"`
}

// Batch scores many blocks on a bounded worker pool.
type Batch struct {
	scorer       *Scorer
	concurrency  int
	blockTimeout time.Duration
	logger       *zap.Logger
}

// NewBatch creates a batch runner. concurrency below one is treated as one and
// a zero blockTimeout disables the per-block budget.
func NewBatch(scorer *Scorer, concurrency int, blockTimeout time.Duration, logger *zap.Logger) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		scorer:       scorer,
		concurrency:  concurrency,
		blockTimeout: blockTimeout,
		logger:       logger.Named("centrality.batch"),
	}
}

// ScoreAll scores every block and returns the results in block order.
// Per-block failures are carried on the results; the only error returned is
// the cancellation of ctx itself.
func (b *Batch) ScoreAll(ctx context.Context, blocks []string) ([]schemas.ScoredGraph, error) {
	results := make([]schemas.ScoredGraph, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, block := range blocks {
		g.Go(func() error {
			bctx := gctx
			if b.blockTimeout > 0 {
				var cancel context.CancelFunc
				bctx, cancel = context.WithTimeout(gctx, b.blockTimeout)
				defer cancel()
			}
			results[i] = b.scorer.ScoreBlock(bctx, i, block)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}
	return results, nil
}

// TopK scores all blocks, orders them by descending score and keeps the
// first k. Ties keep block order. k <= 0 keeps everything.
func (b *Batch) TopK(ctx context.Context, blocks []string, k int) ([]schemas.ScoredGraph, *Stats, error) {
	results, err := b.ScoreAll(ctx, blocks)
	if err != nil {
		return nil, nil, err
	}

	stats := Summarize(results)
	b.logger.Info("Scored graph blocks",
		zap.Int("blocks", stats.Blocks),
		zap.Int("failures", stats.Failures),
		zap.Int("scored", stats.Scored),
		zap.Float64("mean", stats.Mean),
		zap.Float64("stddev", stats.StdDev),
		zap.Float64("max", stats.Max),
	)
	b.scorer.metrics.SetTopScore(stats.Max)

	return Rank(results, k), stats, nil
}

// Rank sorts a copy of results by descending score, stable on ties, and
// truncates it to k entries when k > 0.
func Rank(results []schemas.ScoredGraph, k int) []schemas.ScoredGraph {
	ranked := append([]schemas.ScoredGraph(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Summarize computes batch statistics over all results, failures included.
func Summarize(results []schemas.ScoredGraph) *Stats {
	s := &Stats{Blocks: len(results)}
	if len(results) == 0 {
		return s
	}
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
		if r.Failure != nil {
			s.Failures++
		}
		if r.Score > 0 {
			s.Scored++
		}
	}
	s.Max = floats.Max(scores)
	if len(scores) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(scores, nil)
	} else {
		s.Mean = scores[0]
	}
	return s
}
