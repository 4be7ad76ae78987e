// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/config"
	"github.com/xkilldash9x/fairgraph/internal/mocks"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/reporting"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	isolateEnv(t)
	out, err := executeCommand(t, nil, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "fairgraph version "+Version)
}

func TestRootCmd_NoArgs(t *testing.T) {
	isolateEnv(t)
	out, err := executeCommand(t, nil, "")
	require.NoError(t, err)
	assert.Contains(t, out, "fairgraph reads PENMAN-serialized AMR corpora")
	for _, sub := range []string{"centrality-score", "summary", "preprocess", "clean"} {
		assert.Contains(t, out, sub)
	}
}

func TestCentralityScore(t *testing.T) {
	t.Run("should print the top K graphs as a table", func(t *testing.T) {
		isolateEnv(t)
		logs := captureLogs(t)
		input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

		out, err := executeCommand(t, nil, "", "centrality-score", input, "--k", "2")
		require.NoError(t, err)

		assert.Contains(t, out, "Top 2 graphs by fairness centrality:")
		assert.Contains(t, out, "1.0000")
		assert.Contains(t, out, "0.3500")
		assert.Less(t, strings.Index(out, "1.0000"), strings.Index(out, "0.3500"))
		assert.NotContains(t, out, "(d / dog)")

		assert.Contains(t, logs.String(), "Found 4 AMR blocks")
		assert.Contains(t, logs.String(), "Failed to score graph block")
	})

	t.Run("should accept the underscore alias and JSON output", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

		out, err := executeCommand(t, nil, "", "centrality_score", input, "--k", "3", "--format", "json", "--workers", "3")
		require.NoError(t, err)

		var report reporting.ScoreReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, 3, report.K)
		require.Len(t, report.Graphs, 3)
		assert.Equal(t, []int{1, 0, 2}, []int{report.Graphs[0].ID, report.Graphs[1].ID, report.Graphs[2].ID})
		require.NotNil(t, report.Graphs[2].Failure)
		assert.Equal(t, 2, report.Graphs[2].Failure.Block)
	})

	t.Run("should write the report file atomically", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		dir := t.TempDir()
		input := writeFile(t, dir, "corpus.amr", scoreCorpus)
		output := filepath.Join(dir, "scores.yaml")

		out, err := executeCommand(t, nil, "", "centrality-score", input, "-f", "yaml", "-o", output)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(data), "k: 10")
		assert.Contains(t, string(data), "gid: 1")
	})

	t.Run("should reject a non-positive k", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

		_, err := executeCommand(t, nil, "", "centrality-score", input, "--k", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "centrality.top_k must be >= 1")
	})

	t.Run("should fail on a missing input file", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)

		_, err := executeCommand(t, nil, "", "centrality-score", filepath.Join(t.TempDir(), "missing.amr"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("should require exactly one input", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		_, err := executeCommand(t, nil, "", "centrality-score")
		require.Error(t, err)
	})

	t.Run("should persist the run when a database is configured", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		t.Setenv("FAIRGRAPH_DATABASE_URL", "postgres://fairgraph@localhost/fairgraph")
		input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

		var runID string
		st := new(mocks.MockStore)
		st.On("SaveRun", mock.Anything, mock.MatchedBy(func(run schemas.Run) bool {
			runID = run.ID
			return run.Command == "centrality-score" && run.InputPath == input &&
				run.Blocks == 4 && run.Failures == 1 && run.ID != "" && !run.CreatedAt.IsZero()
		})).Return(nil).Once()
		st.On("SaveScores", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(scores []schemas.ScoredGraph) bool {
			return len(scores) == 2 && scores[0].ID == 1 && scores[1].ID == 0
		})).Return(nil).Once()
		provider := &mockStoreProvider{store: st}

		_, err := executeCommand(t, provider, "", "centrality-score", input, "--k", "2")
		require.NoError(t, err)

		st.AssertExpectations(t)
		st.AssertCalled(t, "SaveScores", mock.Anything, runID, mock.Anything)
		assert.Equal(t, 1, provider.calls)
		assert.Equal(t, 1, provider.cleanups)
	})

	t.Run("should surface persistence failures", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		t.Setenv("FAIRGRAPH_DATABASE_URL", "postgres://fairgraph@localhost/fairgraph")
		provider := &mockStoreProvider{err: errors.New("connection refused")}
		input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

		_, err := executeCommand(t, provider, "", "centrality-score", input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("should export metrics to a textfile", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		dir := t.TempDir()
		metricsPath := filepath.Join(dir, "fairgraph.prom")
		t.Setenv("FAIRGRAPH_METRICS_TEXTFILE", metricsPath)
		input := writeFile(t, dir, "corpus.amr", scoreCorpus)

		_, err := executeCommand(t, nil, "", "centrality-score", input)
		require.NoError(t, err)

		data, err := os.ReadFile(metricsPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `fairgraph_blocks_total{command="centrality-score",outcome="scored"} 2`)
		assert.Contains(t, string(data), `fairgraph_blocks_total{command="centrality-score",outcome="decode_error"} 1`)
		assert.Contains(t, string(data), "fairgraph_top_centrality_score 1")
	})
}

func TestSummary(t *testing.T) {
	isolateEnv(t)
	captureLogs(t)
	input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

	out, err := executeCommand(t, nil, "", "summary", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed 3 graphs (1 failed to decode)")
	assert.Contains(t, out, "=== Position of fairness ===")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "leaf")
}

func TestPreprocessMultisentence(t *testing.T) {
	t.Run("should keep only sentences mentioning the keyword", func(t *testing.T) {
		isolateEnv(t)
		logs := captureLogs(t)
		dir := t.TempDir()
		input := writeFile(t, dir, "multi.amr", multiCorpus)
		output := filepath.Join(dir, "out.amr")

		_, err := executeCommand(t, nil, "", "preprocess", "multisentence", input, output)
		require.NoError(t, err)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "(w / want-01\n   :ARG1 (f / fairness))\n\n", string(data))
		assert.Contains(t, logs.String(), "Found 2 AMR blocks")
		assert.Contains(t, logs.String(), "Wrote 1 AMRs containing 'fairness'")
	})

	t.Run("should honor the keyword flag and persist sentences", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		t.Setenv("FAIRGRAPH_DATABASE_URL", "postgres://fairgraph@localhost/fairgraph")
		st := new(mocks.MockStore)
		st.On("SaveRun", mock.Anything, mock.MatchedBy(func(run schemas.Run) bool {
			return run.Command == "preprocess-multisentence" && run.Blocks == 2 && run.Failures == 0
		})).Return(nil).Once()
		st.On("SaveSentences", mock.Anything, mock.AnythingOfType("string"), []schemas.Sentence{
			{Block: 0, Position: 2, AMR: "(d / dog)"},
		}).Return(nil).Once()
		provider := &mockStoreProvider{store: st}
		dir := t.TempDir()
		input := writeFile(t, dir, "multi.amr", multiCorpus)
		output := filepath.Join(dir, "out.amr")

		_, err := executeCommand(t, provider, "", "preprocess", "multisentence", input, output, "--keyword", "dog")
		require.NoError(t, err)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "(d / dog)\n\n", string(data))
		st.AssertExpectations(t)
	})
}

func TestClean(t *testing.T) {
	const doc = "<style>p { color: red; }</style>\n<p style=\"x\">Fair <b>share</b></p>\n"

	t.Run("files", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		dir := t.TempDir()
		input := writeFile(t, dir, "page.html", doc)
		output := filepath.Join(dir, "page.txt")

		_, err := executeCommand(t, nil, "", "clean", input, output)
		require.NoError(t, err)
		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "Fair share", string(data))
	})

	t.Run("streams", func(t *testing.T) {
		isolateEnv(t)
		captureLogs(t)
		out, err := executeCommand(t, nil, doc, "clean", "-", "-")
		require.NoError(t, err)
		assert.Equal(t, "Fair share", out)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/corpus.amr")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "corpus.amr"), got)

	got, err = expandPath("relative/corpus.amr")
	require.NoError(t, err)
	assert.Equal(t, "relative/corpus.amr", got)
}

func TestConfigFileOverride(t *testing.T) {
	isolateEnv(t)
	captureLogs(t)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "fairgraph.yaml", "centrality:\n  top_k: 1\noutput:\n  format: json\n")
	input := writeFile(t, dir, "corpus.amr", scoreCorpus)

	out, err := executeCommand(t, nil, "", "centrality-score", "-c", cfgPath, input)
	require.NoError(t, err)

	var report reporting.ScoreReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.K)
	require.Len(t, report.Graphs, 1)
	assert.Equal(t, 1, report.Graphs[0].ID)

	t.Run("flags win over the config file", func(t *testing.T) {
		captureLogs(t)
		out, err := executeCommand(t, nil, "", "centrality-score", "-c", cfgPath, input, "--k", "2")
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Len(t, report.Graphs, 2)
	})

	t.Run("a missing explicit config file is an error", func(t *testing.T) {
		captureLogs(t)
		_, err := executeCommand(t, nil, "", "centrality-score", "-c", filepath.Join(dir, "nope.yaml"), input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestRunSummary_WithMockConfig(t *testing.T) {
	logs := captureLogs(t)
	cfg := new(mocks.MockConfig)
	cfg.On("Summary").Return(config.SummaryConfig{MaxItems: 1, MaxExamples: 1})
	cfg.On("Output").Return(config.OutputConfig{Format: reporting.FormatJSON})
	cfg.On("Database").Return(config.DatabaseConfig{})
	input := writeFile(t, t.TempDir(), "corpus.amr", scoreCorpus)

	var out bytes.Buffer
	err := runSummary(context.Background(), observability.GetLogger(), cfg, &out, input, "", &mockStoreProvider{})
	require.NoError(t, err)

	var report schemas.SummaryReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 3, report.Graphs)
	assert.Len(t, report.Positions, 1, "tables are cut at max_items")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Block)
	assert.Contains(t, logs.String(), "Skipping graph block that failed to decode")
	cfg.AssertExpectations(t)
}
