package knowledgegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/fairgraph/api/schemas"
)

func tr(s, r, t string) schemas.Triple {
	return schemas.Triple{Source: s, Role: r, Target: t}
}

// want-01 graph with a re-entrant boy and an unreachable island.
var reentrant = []schemas.Triple{
	tr("w", ":instance", "want-01"),
	tr("w", ":ARG0", "b"),
	tr("b", ":instance", "boy"),
	tr("w", ":ARG1", "g"),
	tr("g", ":instance", "go-02"),
	tr("g", ":ARG0", "b"),
	tr("g", ":mod", "g"),
	tr("x", ":instance", "island"),
	tr("x", ":ARG1", "w"),
}

func TestNewIndex(t *testing.T) {
	idx := NewIndex(reentrant)

	assert.Equal(t, len(reentrant), idx.Len())
	assert.Equal(t, []Edge{
		{Role: ":instance", Node: "want-01"},
		{Role: ":ARG0", Node: "b"},
		{Role: ":ARG1", Node: "g"},
	}, idx.Outgoing("w"))

	t.Run("incoming edges skip instance triples", func(t *testing.T) {
		assert.Equal(t, []string{":ARG0", ":ARG0"}, idx.IncomingRoles("b"))
		assert.Equal(t, []Edge{{Role: ":ARG1", Node: "x"}}, idx.Incoming("w"))
		assert.Empty(t, idx.IncomingRoles("boy"))
		assert.Nil(t, idx.IncomingRoles("x"))
	})

	t.Run("concepts", func(t *testing.T) {
		c, ok := idx.Concept("g")
		require.True(t, ok)
		assert.Equal(t, "go-02", c)

		_, ok = idx.Concept("boy")
		assert.False(t, ok)
	})

	t.Run("nodes versus literals", func(t *testing.T) {
		assert.True(t, idx.IsNode("b"))
		assert.False(t, idx.IsNode("boy"))
	})

	t.Run("nil graph", func(t *testing.T) {
		empty := NewGraphIndex(nil)
		assert.Zero(t, empty.Len())
		assert.Empty(t, empty.Outgoing("a"))
	})
}

func TestDistances(t *testing.T) {
	idx := NewIndex(reentrant)
	dist := idx.Distances("w")

	assert.Equal(t, 0, dist["w"])
	assert.Equal(t, 1, dist["b"], "re-entrant node keeps its shortest distance")
	assert.Equal(t, 1, dist["g"])
	assert.Equal(t, 2, dist["go-02"])

	_, ok := dist["x"]
	assert.False(t, ok, "nodes reachable only through incoming edges have no distance")

	t.Run("unknown root", func(t *testing.T) {
		assert.Equal(t, map[string]int{"nope": 0}, idx.Distances("nope"))
	})

	t.Run("edge relaxation holds for every triple", func(t *testing.T) {
		for _, tp := range reentrant {
			ds, sOK := dist[tp.Source]
			if !sOK {
				continue
			}
			dt, tOK := dist[tp.Target]
			require.True(t, tOK, "target of a reached source must be reached: %v", tp)
			assert.LessOrEqual(t, dt, ds+1, "triple %v", tp)
		}
	})
}

func TestConnected(t *testing.T) {
	got := Connected(reentrant, "w")
	assert.Equal(t, reentrant[:7], got, "island triples are dropped, order is kept")

	t.Run("cycles terminate", func(t *testing.T) {
		cyc := []schemas.Triple{
			tr("a", ":ARG0", "b"),
			tr("b", ":ARG0", "a"),
		}
		assert.Equal(t, cyc, Connected(cyc, "b"))
	})

	t.Run("unknown top yields nothing", func(t *testing.T) {
		assert.Empty(t, Connected(reentrant, "zzz"))
	})
}

func TestExtract(t *testing.T) {
	g := Extract(reentrant, "g")
	assert.Equal(t, "g", g.Top)
	assert.Equal(t, []schemas.Triple{
		tr("b", ":instance", "boy"),
		tr("g", ":instance", "go-02"),
		tr("g", ":ARG0", "b"),
		tr("g", ":mod", "g"),
	}, g.Triples)
}
