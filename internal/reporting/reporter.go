// -- internal/reporting/reporter.go --
package reporting

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/fsutil"
)

// Supported output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ScoreReport is the payload of the centrality-score command.
type ScoreReport struct {
	K      int                   `json:"k" yaml:"k"`
	Graphs []schemas.ScoredGraph `json:"graphs" yaml:"graphs"`
}

// Reporter defines the interface for writing command results to an output.
type Reporter interface {
	// WriteScores renders the top-K centrality table.
	WriteScores(report *ScoreReport) error
	// WriteSummary renders the structural summary tables.
	WriteSummary(report *schemas.SummaryReport) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// Options tune rendering.
type Options struct {
	// AMRWidth truncates flattened graphs in table cells. Zero keeps them whole.
	AMRWidth int
	// Stdout receives output when no file is named. Nil means os.Stdout.
	Stdout   io.Writer
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// atomicFile buffers everything and replaces the target file on Close, so a
// failed command never leaves a partial report behind.
type atomicFile struct {
	path string
	buf  bytes.Buffer
}

func (a *atomicFile) Write(p []byte) (int, error) {
	return a.buf.Write(p)
}

func (a *atomicFile) Close() error {
	return fsutil.WriteFileAtomic(a.path, 0o644, func(w io.Writer) error {
		_, err := a.buf.WriteTo(w)
		return err
	})
}

// New creates a new reporter based on the specified format and output path.
// An empty path, "-" or "stdout" writes to standard output.
func New(format, outputPath string, opts Options) (Reporter, error) {
	var writer io.WriteCloser
	if outputPath == "" || outputPath == "-" || outputPath == "stdout" {
		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		writer = &nopWriteCloser{stdout}
	} else {
		writer = &atomicFile{path: outputPath}
	}
	return NewWithWriter(format, writer, opts)
}

// NewWithWriter creates a reporter that owns w.
func NewWithWriter(format string, w io.WriteCloser, opts Options) (Reporter, error) {
	switch format {
	case FormatTable, "":
		return &tableReporter{w: w, opts: opts}, nil
	case FormatJSON:
		return &jsonReporter{w: w}, nil
	case FormatYAML:
		return &yamlReporter{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
