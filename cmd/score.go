// File: cmd/score.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/analysis/centrality"
	"github.com/xkilldash9x/fairgraph/internal/config"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/penman"
	"github.com/xkilldash9x/fairgraph/internal/reporting"
)

// newScoreCmd creates and configures the `centrality-score` command.
func newScoreCmd(provider storeProvider) *cobra.Command {
	var outputPath string

	scoreCmd := &cobra.Command{
		Use:     "centrality-score <input>",
		Aliases: []string{"centrality_score"},
		Short:   "Rank graphs by how central their fairness concepts are",
		Long: `Scores every graph block of the input file by the centrality of its fairness
nodes and prints the top K graphs. Blocks that fail to parse score zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runScore(ctx, observability.GetLogger(), cfg, cmd.OutOrStdout(), args[0], outputPath, provider)
		},
	}

	scoreCmd.Flags().Int("k", 0, "number of top graphs to report (default from centrality.top_k)")
	scoreCmd.Flags().StringP("format", "f", "", "output format: table, json or yaml")
	scoreCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path. If unset, results are printed to stdout.")

	return scoreCmd
}

// runScore contains the core, testable logic of the centrality-score command.
func runScore(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	out io.Writer,
	input, outputPath string,
	provider storeProvider,
) error {
	path, blocks, err := readCorpus(logger, input)
	if err != nil {
		return err
	}

	metrics := newMetrics(cfg)
	scorer := centrality.NewScorer(penman.NewCodec(), logger, metrics)
	batch := centrality.NewBatch(scorer, cfg.Engine().WorkerConcurrency, cfg.Engine().BlockTimeout, logger)

	k := cfg.Centrality().TopK
	top, stats, err := batch.TopK(ctx, blocks, k)
	if err != nil {
		return fmt.Errorf("failed to score %s: %w", path, err)
	}

	err = writeReport(out, cfg, outputPath, func(r reporting.Reporter) error {
		return r.WriteScores(&reporting.ScoreReport{K: k, Graphs: top})
	})
	if err != nil {
		return err
	}

	run := schemas.Run{
		Command:   centrality.CommandName,
		InputPath: path,
		Blocks:    stats.Blocks,
		Failures:  stats.Failures,
	}
	err = persistRun(ctx, logger, cfg, provider, run, func(ctx context.Context, s schemas.Store, runID string) error {
		return s.SaveScores(ctx, runID, top)
	})
	if err != nil {
		return err
	}
	return flushMetrics(logger, cfg, metrics)
}
