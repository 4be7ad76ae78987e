// Package summary reports where fairness concepts sit in a corpus: their
// position in the graph, the roles and concepts around them, and a few
// examples of each relation.
package summary

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/knowledgegraph"
)

// Positions of a fairness node within its graph.
const (
	PositionRoot     = "root"
	PositionLeaf     = "leaf"
	PositionInterior = "interior"
)

// LiteralConcept stands in for neighbours that have no concept.
const LiteralConcept = "(literal)"

// fairnessConcepts are the concepts a summary looks for. Unlike scoring, this
// is an exact match on the concept.
var fairnessConcepts = map[string]struct{}{
	"fairness": {},
	"fair-01":  {},
}

// Options bounds the size of a report.
type Options struct {
	MaxItems    int
	MaxExamples int
}

// DefaultOptions returns the table limits used by the summary command.
func DefaultOptions() Options {
	return Options{MaxItems: 20, MaxExamples: 3}
}

// Analyzer accumulates the summary of a corpus.
type Analyzer struct {
	codec  schemas.GraphCodec
	opts   Options
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(codec schemas.GraphCodec, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{codec: codec, opts: opts, logger: logger.Named("summary")}
}

type tally struct {
	positions       *counter
	parentRoles     *counter
	parentConcepts  *counter
	childRoles      *counter
	siblingConcepts *counter
	parentExamples  *examples
	childExamples   *examples
}

// Analyze decodes every block and tallies the surroundings of each fairness
// node. Blocks that fail to decode are logged, recorded and skipped.
func (a *Analyzer) Analyze(ctx context.Context, blocks []string) (*schemas.SummaryReport, error) {
	t := &tally{
		positions:       newCounter(),
		parentRoles:     newCounter(),
		parentConcepts:  newCounter(),
		childRoles:      newCounter(),
		siblingConcepts: newCounter(),
		parentExamples:  newExamples(a.opts.MaxExamples),
		childExamples:   newExamples(a.opts.MaxExamples),
	}
	report := &schemas.SummaryReport{}

	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := a.codec.Decode(block)
		if err != nil {
			a.logger.Warn("Skipping graph block that failed to decode", zap.Int("block", i), zap.Error(err))
			report.Failures = append(report.Failures, schemas.BlockFailure{Block: i, Reason: err.Error()})
			continue
		}
		report.Graphs++
		a.analyzeGraph(g, t)
	}

	report.Positions = t.positions.top(a.opts.MaxItems)
	report.ParentRoles = t.parentRoles.top(a.opts.MaxItems)
	report.ParentConcepts = t.parentConcepts.top(a.opts.MaxItems)
	report.ChildRoles = t.childRoles.top(a.opts.MaxItems)
	report.SiblingConcepts = t.siblingConcepts.top(a.opts.MaxItems)
	report.ParentExamples = t.parentExamples.list()
	report.ChildExamples = t.childExamples.list()
	return report, nil
}

func (a *Analyzer) analyzeGraph(g *schemas.Graph, t *tally) {
	idx := knowledgegraph.NewGraphIndex(g)

	conceptOf := func(node string) string {
		if c, ok := idx.Concept(node); ok && c != "" {
			return c
		}
		return LiteralConcept
	}

	for _, v := range FairnessVariables(g) {
		children := relations(idx.Outgoing(v))

		switch {
		case v == g.Top:
			t.positions.add(PositionRoot)
		case len(children) == 0:
			t.positions.add(PositionLeaf)
		default:
			t.positions.add(PositionInterior)
		}

		for _, in := range idx.Incoming(v) {
			fam := RoleFamily(in.Role)
			parentConcept := conceptOf(in.Node)
			t.parentRoles.add(fam)
			t.parentConcepts.add(parentConcept)
			t.parentExamples.add(fam, schemas.RelationExample{Concept: parentConcept, Role: in.Role})

			for _, sib := range relations(idx.Outgoing(in.Node)) {
				if sib.Node == v {
					continue
				}
				if c, ok := idx.Concept(sib.Node); ok && c != "" {
					t.siblingConcepts.add(c)
				}
			}
		}

		for _, out := range children {
			fam := RoleFamily(out.Role)
			t.childRoles.add(fam)
			t.childExamples.add(fam, schemas.RelationExample{Concept: conceptOf(out.Node), Role: out.Role})
		}
	}
}

// FairnessVariables lists, in triple order, the nodes whose concept is
// exactly "fairness" or "fair-01".
func FairnessVariables(g *schemas.Graph) []string {
	var vars []string
	seen := make(map[string]struct{})
	for _, t := range g.Triples {
		if t.Role != schemas.RoleInstance {
			continue
		}
		if _, ok := fairnessConcepts[t.Target]; !ok {
			continue
		}
		if _, dup := seen[t.Source]; dup {
			continue
		}
		seen[t.Source] = struct{}{}
		vars = append(vars, t.Source)
	}
	return vars
}

// RoleFamily strips the leading colon and lower-cases a role. All :opN roles
// share the family "op".
func RoleFamily(role string) string {
	r := strings.ToLower(strings.TrimPrefix(role, schemas.RolePrefix))
	if strings.HasPrefix(r, "op") {
		return "op"
	}
	return r
}

// relations drops instance edges.
func relations(edges []knowledgegraph.Edge) []knowledgegraph.Edge {
	out := make([]knowledgegraph.Edge, 0, len(edges))
	for _, e := range edges {
		if e.Role != schemas.RoleInstance {
			out = append(out, e)
		}
	}
	return out
}

// counter counts keys and remembers the order they were first seen in.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns up to n entries by descending count, ties in first-seen order.
func (c *counter) top(n int) []schemas.CountEntry {
	entries := make([]schemas.CountEntry, len(c.order))
	for i, k := range c.order {
		entries[i] = schemas.CountEntry{Key: k, Count: c.counts[k]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// examples keeps the first few relation examples per role family.
type examples struct {
	limit    int
	byFamily map[string][]schemas.RelationExample
	order    []string
}

func newExamples(limit int) *examples {
	return &examples{limit: limit, byFamily: make(map[string][]schemas.RelationExample)}
}

func (e *examples) add(family string, ex schemas.RelationExample) {
	list, ok := e.byFamily[family]
	if !ok {
		e.order = append(e.order, family)
	}
	if len(list) < e.limit {
		list = append(list, ex)
	}
	e.byFamily[family] = list
}

func (e *examples) list() []schemas.FamilyExamples {
	out := make([]schemas.FamilyExamples, 0, len(e.order))
	for _, fam := range e.order {
		out = append(out, schemas.FamilyExamples{Family: fam, Examples: e.byFamily[fam]})
	}
	return out
}
