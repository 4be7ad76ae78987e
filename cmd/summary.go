// File: cmd/summary.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/analysis/summary"
	"github.com/xkilldash9x/fairgraph/internal/config"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/penman"
	"github.com/xkilldash9x/fairgraph/internal/reporting"
)

const summaryCommandName = "summary"

// newSummaryCmd creates and configures the `summary` command.
func newSummaryCmd(provider storeProvider) *cobra.Command {
	var outputPath string

	summaryCmd := &cobra.Command{
		Use:   "summary <input>",
		Short: "Summarize where fairness concepts sit in each graph",
		Long: `Tallies the position of every fairness or fair-01 node, the roles and concepts
of its parents, its children and its siblings across the whole corpus.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runSummary(ctx, observability.GetLogger(), cfg, cmd.OutOrStdout(), args[0], outputPath, provider)
		},
	}

	summaryCmd.Flags().StringP("format", "f", "", "output format: table, json or yaml")
	summaryCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path. If unset, results are printed to stdout.")
	summaryCmd.Flags().Int("max-items", 0, "rows per table (default from summary.max_items)")

	return summaryCmd
}

// runSummary contains the core, testable logic of the summary command.
func runSummary(
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

	analyzer := summary.NewAnalyzer(penman.NewCodec(), summary.Options{
		MaxItems:    cfg.Summary().MaxItems,
		MaxExamples: cfg.Summary().MaxExamples,
	}, logger)
	report, err := analyzer.Analyze(ctx, blocks)
	if err != nil {
		return fmt.Errorf("failed to summarize %s: %w", path, err)
	}

	err = writeReport(out, cfg, outputPath, func(r reporting.Reporter) error {
		return r.WriteSummary(report)
	})
	if err != nil {
		return err
	}

	run := schemas.Run{
		Command:   summaryCommandName,
		InputPath: path,
		Blocks:    len(blocks),
		Failures:  len(report.Failures),
	}
	return persistRun(ctx, logger, cfg, provider, run, nil)
}
