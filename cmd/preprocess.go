// File: cmd/preprocess.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/analysis/fairness"
	"github.com/xkilldash9x/fairgraph/internal/config"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/penman"
	"github.com/xkilldash9x/fairgraph/internal/preprocessing/multisentence"
)

// newPreprocessCmd groups the corpus preprocessing steps.
func newPreprocessCmd(provider storeProvider) *cobra.Command {
	preprocessCmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Prepare AMR corpora for analysis",
	}
	preprocessCmd.AddCommand(newMultisentenceCmd(provider))
	return preprocessCmd
}

func newMultisentenceCmd(provider storeProvider) *cobra.Command {
	multiCmd := &cobra.Command{
		Use:   "multisentence <input> <output>",
		Short: "Split multi-sentence graphs and keep sentences mentioning a keyword",
		Long: `Splits every graph on its sentence roles (:snt1, :snt2, ...) and writes each
resulting sentence graph that mentions the keyword as a whole word, followed by
a blank line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runMultisentence(ctx, observability.GetLogger(), cfg, args[0], args[1], provider)
		},
	}

	multiCmd.Flags().String("keyword", "", "keep sentences containing this word (default from preprocess.keyword)")

	return multiCmd
}

// runMultisentence contains the core, testable logic of preprocess multisentence.
func runMultisentence(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	input, output string,
	provider storeProvider,
) error {
	pcfg := cfg.Preprocess()
	matcher, err := fairness.NewKeywordMatcher(pcfg.Keyword)
	if err != nil {
		return err
	}
	outPath, err := expandPath(output)
	if err != nil {
		return err
	}

	path, blocks, err := readCorpus(logger, input)
	if err != nil {
		return err
	}

	metrics := newMetrics(cfg)
	splitter := multisentence.NewSplitter(penman.NewCodec(), pcfg.SentenceRolePrefix, logger)
	pipeline := multisentence.NewPipeline(splitter, matcher, logger,
		multisentence.WithConcurrency(cfg.Engine().WorkerConcurrency),
		multisentence.WithBlockTimeout(cfg.Engine().BlockTimeout),
		multisentence.WithMetrics(metrics),
	)

	sentences, stats, err := pipeline.Run(ctx, blocks)
	if err != nil {
		return fmt.Errorf("failed to split %s: %w", path, err)
	}
	if err := multisentence.WriteSentencesFile(outPath, sentences); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logger.Info(fmt.Sprintf("Wrote %d AMRs containing '%s'", stats.Kept, matcher.Keyword()),
		zap.String("path", outPath),
		zap.Int("sentences", stats.Sentences),
		zap.Int("failures", stats.Failures),
	)

	run := schemas.Run{
		Command:   multisentence.CommandName,
		InputPath: path,
		Blocks:    stats.Blocks,
		Failures:  stats.Failures,
	}
	err = persistRun(ctx, logger, cfg, provider, run, func(ctx context.Context, s schemas.Store, runID string) error {
		return s.SaveSentences(ctx, runID, sentences)
	})
	if err != nil {
		return err
	}
	return flushMetrics(logger, cfg, metrics)
}
