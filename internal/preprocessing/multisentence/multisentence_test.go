package multisentence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/analysis/fairness"
	"github.com/xkilldash9x/fairgraph/internal/mocks"
	"github.com/xkilldash9x/fairgraph/internal/observability"
	"github.com/xkilldash9x/fairgraph/internal/penman"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const scenarioC = `(p / multi-sentence
   :snt1 (s1 / value-01 :ARG1 (f / fairness))
   :snt2 (s2 / rain-01)
   :mod (r / residual))`

func key(t schemas.Triple) string {
	return t.Source + " " + t.Role + " " + t.Target
}

func tripleKeys(ts []schemas.Triple) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = key(t)
	}
	sort.Strings(out)
	return out
}

func decode(t *testing.T, block string) *schemas.Graph {
	t.Helper()
	g, err := penman.Decode(block)
	require.NoError(t, err)
	return g
}

// slowCodec delays every decode so a tight block budget always runs out.
type slowCodec struct {
	schemas.GraphCodec
	delay time.Duration
}

func (c slowCodec) Decode(block string) (*schemas.Graph, error) {
	time.Sleep(c.delay)
	return c.GraphCodec.Decode(block)
}

func newSplitter() *Splitter {
	return NewSplitter(penman.NewCodec(), "", nil)
}

func TestSplit_ScenarioC(t *testing.T) {
	g := decode(t, scenarioC)
	p := newSplitter().Split(g)

	graphs := p.Graphs()
	require.Len(t, graphs, 3)
	assert.Equal(t, "p", graphs[0].Top)
	assert.Equal(t, "s1", graphs[1].Top)
	assert.Equal(t, "s2", graphs[2].Top)

	assert.Equal(t, []string{
		"p :instance multi-sentence",
		"p :mod r",
		"r :instance residual",
	}, tripleKeys(p.Parent.Triples))
	assert.Equal(t, []string{
		"f :instance fairness",
		"s1 :ARG1 f",
		"s1 :instance value-01",
	}, tripleKeys(graphs[1].Triples))
	assert.Equal(t, []string{"s2 :instance rain-01"}, tripleKeys(graphs[2].Triples))
	assert.Len(t, p.Removed, 2)
}

func TestSplit_NoSentenceRoles(t *testing.T) {
	g := decode(t, "(a / want-01 :ARG1 (b / fairness))")
	p := newSplitter().Split(g)

	require.Len(t, p.Graphs(), 1)
	assert.Same(t, g, p.Parent)
	assert.Empty(t, p.Removed)

	parts, err := newSplitter().SplitBlock(context.Background(), 0, "(a / want-01 :ARG1 (b / fairness))")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	again := decode(t, parts[0])
	if diff := cmp.Diff(tripleKeys(g.Triples), tripleKeys(again.Triples)); diff != "" {
		t.Errorf("single sentence differs from the input (-want +got):\n%s", diff)
	}
}

func TestSplit_ParentEmptied(t *testing.T) {
	// Only the sentence edges hang off the top, which has no concept.
	g := &schemas.Graph{Top: "m", Triples: []schemas.Triple{
		{Source: "m", Role: ":snt1", Target: "a"},
		{Source: "a", Role: ":instance", Target: "fairness"},
	}}
	p := newSplitter().Split(g)
	assert.Nil(t, p.Parent)
	require.Len(t, p.Graphs(), 1)
	assert.Equal(t, "a", p.Graphs()[0].Top)
}

func TestSplit_LosslessAndNonDuplicating(t *testing.T) {
	blocks := []string{
		scenarioC,
		`(m / multi-sentence :snt1 (a / say-01 :ARG0 (b / boy) :snt3 (c / fairness)) :snt2 (d / go-02 :ARG0 (e / girl)))`,
		`(m / multi-sentence :snt1 (a / x) :snt2 (b / y :mod (c / z)) :snt3 (d / w))`,
	}
	for i, block := range blocks {
		g := decode(t, block)
		p := newSplitter().Split(g)

		var union []schemas.Triple
		if p.Parent != nil {
			union = append(union, p.Parent.Triples...)
		}
		seen := make(map[string]int)
		for _, s := range p.Sentences {
			union = append(union, s.Triples...)
			for _, tr := range s.Triples {
				seen[key(tr)]++
			}
		}
		union = append(union, p.Removed...)

		assert.Equal(t, tripleKeys(g.Triples), tripleKeys(union), "block %d is not lossless", i)
		for k, n := range seen {
			assert.Equal(t, 1, n, "block %d: triple %q repeated across sentences", i, k)
		}
	}
}

func TestSplit_CustomPrefix(t *testing.T) {
	s := NewSplitter(penman.NewCodec(), ":part", nil)
	assert.True(t, s.IsSentenceRole(":part1"))
	assert.False(t, s.IsSentenceRole(":snt1"))

	p := s.Split(decode(t, "(m / doc :part1 (a / x) :snt1 (b / y))"))
	require.Len(t, p.Sentences, 1)
	assert.Equal(t, "a", p.Sentences[0].Top)
}

func TestSplitBlock_DecodeFailure(t *testing.T) {
	parts, err := newSplitter().SplitBlock(context.Background(), 4, "(m / multi-sentence :snt1")
	require.Error(t, err)
	assert.ErrorIs(t, err, penman.ErrDecode)
	assert.Empty(t, parts)
}

func TestSplitBlock_EncodeFailures(t *testing.T) {
	g := decode(t, scenarioC)
	encodeErr := errors.New("layout error")

	t.Run("unserializable parts are skipped", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		codec := new(mocks.MockCodec)
		codec.On("Decode", scenarioC).Return(g, nil)
		codec.On("Encode", mock.MatchedBy(func(part *schemas.Graph) bool { return part.Top == "s2" })).Return("", encodeErr)
		codec.On("Encode", mock.Anything).Return("(ok)", nil)

		parts, err := NewSplitter(codec, "", zap.New(core)).SplitBlock(context.Background(), 9, scenarioC)
		require.NoError(t, err)
		assert.Equal(t, []string{"(ok)", "(ok)"}, parts)

		entries := logs.FilterMessage("Skipping sentence graph that cannot be serialized").All()
		require.Len(t, entries, 1)
		assert.Equal(t, int64(9), entries[0].ContextMap()["block"])
		assert.Equal(t, "s2", entries[0].ContextMap()["top"])
	})

	t.Run("a block with no serializable part fails", func(t *testing.T) {
		codec := new(mocks.MockCodec)
		codec.On("Decode", scenarioC).Return(g, nil)
		codec.On("Encode", mock.Anything).Return("", encodeErr)

		parts, err := NewSplitter(codec, "", nil).SplitBlock(context.Background(), 9, scenarioC)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no part of block 9 could be serialized")
		assert.Empty(t, parts)
		codec.AssertNumberOfCalls(t, "Encode", 3)
	})
}

func TestPipeline_Run(t *testing.T) {
	matcher, err := fairness.NewKeywordMatcher("fairness")
	require.NoError(t, err)

	blocks := []string{
		scenarioC,
		"(broken",
		"(u / unfairness)",
		"(a / want-01 :ARG1 (b / Fairness))",
	}

	for _, workers := range []int{1, 4} {
		core, logs := observer.New(zapcore.WarnLevel)
		p := NewPipeline(newSplitter(), matcher, zap.New(core), WithConcurrency(workers))

		kept, stats, err := p.Run(context.Background(), blocks)
		require.NoError(t, err)

		require.Len(t, kept, 2)
		assert.Equal(t, 0, kept[0].Block)
		assert.Equal(t, 1, kept[0].Position, "the sentence after the parent")
		assert.Contains(t, kept[0].AMR, "(s1 / value-01")
		assert.Equal(t, 3, kept[1].Block)

		assert.Equal(t, 4, stats.Blocks)
		assert.Equal(t, 1, stats.Failures)
		assert.Equal(t, 5, stats.Sentences)
		assert.Equal(t, 2, stats.Kept)

		entries := logs.FilterMessage("Failed to split graph block").All()
		require.Len(t, entries, 1)
		assert.EqualValues(t, 1, entries[0].ContextMap()["block"])
	}

	t.Run("expired block budget drops the block", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		metrics := observability.NewMetrics()
		codec := slowCodec{GraphCodec: penman.NewCodec(), delay: 5 * time.Millisecond}
		valid := []string{scenarioC, "(a / want-01 :ARG1 (b / Fairness))"}
		p := NewPipeline(NewSplitter(codec, "", nil), matcher, zap.New(core),
			WithConcurrency(2), WithBlockTimeout(time.Nanosecond), WithMetrics(metrics))

		kept, stats, err := p.Run(context.Background(), valid)
		require.NoError(t, err)
		assert.Empty(t, kept)
		assert.Equal(t, len(valid), stats.Failures)
		assert.Zero(t, stats.Sentences)

		entries := logs.FilterMessage("Failed to split graph block").All()
		require.Len(t, entries, len(valid))
		for _, e := range entries {
			assert.Equal(t, observability.OutcomeTimeout, e.ContextMap()["outcome"])
			assert.Contains(t, e.ContextMap()["error"], context.DeadlineExceeded.Error())
		}

		expected := `
# HELP fairgraph_blocks_total Graph blocks processed by command and outcome
# TYPE fairgraph_blocks_total counter
fairgraph_blocks_total{command="preprocess-multisentence",outcome="timeout"} 2
`
		assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "fairgraph_blocks_total"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := NewPipeline(newSplitter(), matcher, nil).Run(ctx, blocks)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteSentencesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.amr")
	err := WriteSentencesFile(path, []schemas.Sentence{
		{AMR: "(a / fairness)\n"},
		{AMR: "  (b / fair-01 :ARG0 (c / fairness))"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(a / fairness)\n\n(b / fair-01 :ARG0 (c / fairness))\n\n", string(data))

	blocks, err := penman.ReadBlocks(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Len(t, blocks, 2, "output must read back as blocks")
}
