// File: cmd/clean.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/internal/fsutil"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/preprocessing/cleaning"
)

// newCleanCmd creates the `clean` command.
func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <input> <output>",
		Short: "Strip stylesheets and HTML markup from a text file",
		Long: `Removes <style> blocks, stylesheet links, inline styles and CSS rules, then all
HTML tags and script bodies, and writes the remaining text. Use - for stdin
or stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			in, out := args[0], args[1]

			if in == "-" || out == "-" {
				return cleanStreams(cmd, in, out)
			}

			inPath, err := expandPath(in)
			if err != nil {
				return err
			}
			outPath, err := expandPath(out)
			if err != nil {
				return err
			}
			if err := cleaning.CleanFile(inPath, outPath); err != nil {
				return err
			}
			logger.Info("Cleaned text written", zap.String("input", inPath), zap.String("output", outPath))
			return nil
		},
	}
}

// cleanStreams handles "-" for either side of the clean command.
func cleanStreams(cmd *cobra.Command, in, out string) error {
	r := cmd.InOrStdin()
	if in != "-" {
		path, err := expandPath(in)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if out == "-" {
		return cleaning.CleanStream(r, cmd.OutOrStdout())
	}

	path, err := expandPath(out)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return cleaning.CleanStream(r, w)
	})
}
