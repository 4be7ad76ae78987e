// Package centrality ranks graphs by how close to the root, and under which
// roles, their fairness nodes sit.
package centrality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/analysis/fairness"
	"github.com/xkilldash9x/fairgraph/internal/knowledgegraph"
	"github.com/xkilldash9x/fairgraph/internal/observability"
)

// CommandName labels metrics recorded by the scorer.
const CommandName = "centrality-score"

// Scorer computes the centrality score of single blocks. It holds no
// per-block state and is safe for concurrent use.
type Scorer struct {
	codec   schemas.GraphCodec
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewScorer creates a scorer. metrics may be nil.
func NewScorer(codec schemas.GraphCodec, logger *zap.Logger, metrics *observability.Metrics) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		codec:   codec,
		logger:  logger.Named("centrality"),
		metrics: metrics,
	}
}

// ScoreGraph returns the centrality score of g and the number of fairness
// nodes it contains. The score is the best weight/(1+distance) over fairness
// nodes reachable from the top; unreachable ones are counted but not scored.
func ScoreGraph(g *schemas.Graph) (float64, int) {
	if g == nil {
		return 0, 0
	}
	idx := knowledgegraph.NewGraphIndex(g)
	nodes := fairness.DetectIndexed(idx, g.Triples)
	if nodes.Len() == 0 {
		return 0, 0
	}

	dist := idx.Distances(g.Top)
	concept, _ := idx.Concept(g.Top)
	topHasConcept := concept != ""

	candidates := make([]float64, 0, nodes.Len())
	for _, fn := range nodes.IDs() {
		if fn == g.Top {
			candidates = append(candidates, RootWeight)
			continue
		}
		d, ok := dist[fn]
		if !ok {
			continue
		}
		w := nodeWeight(idx.IncomingRoles(fn), topHasConcept)
		candidates = append(candidates, w/float64(1+d))
	}
	if len(candidates) == 0 {
		return 0, nodes.Len()
	}
	return floats.Max(candidates), nodes.Len()
}

// ScoreBlock decodes and scores one block. It never fails: a decode error or
// an expired context yields a zero result carrying a BlockFailure.
func (s *Scorer) ScoreBlock(ctx context.Context, id int, block string) schemas.ScoredGraph {
	start := time.Now()
	result := schemas.ScoredGraph{ID: id, AMR: block}

	outcome := observability.OutcomeScored
	defer func() {
		s.metrics.ObserveBlock(CommandName, outcome, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		outcome = s.fail(&result, err)
		return result
	}

	g, err := s.codec.Decode(block)
	if err != nil {
		outcome = s.fail(&result, err)
		return result
	}
	if err := ctx.Err(); err != nil {
		outcome = s.fail(&result, err)
		return result
	}

	result.Score, result.FairnessNodes = ScoreGraph(g)
	if result.Score == 0 {
		outcome = observability.OutcomeUnscored
	}
	return result
}

func (s *Scorer) fail(result *schemas.ScoredGraph, err error) string {
	outcome := observability.OutcomeDecodeErr
	reason := err.Error()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		outcome = observability.OutcomeTimeout
		reason = fmt.Sprintf("block abandoned: %v", err)
	}
	result.Score, result.FairnessNodes = 0, 0
	result.Failure = &schemas.BlockFailure{Block: result.ID, Reason: reason}
	s.logger.Warn("Failed to score graph block", zap.Int("block", result.ID), zap.String("outcome", outcome), zap.Error(err))
	return outcome
}
