package knowledgegraph

import (
	"github.com/xkilldash9x/fairgraph/api/schemas"
)

// Edge is one labelled hop out of (or into) a node. For an outgoing edge Node
// is the target; for an incoming edge it is the source.
type Edge struct {
	Role string
	Node string
}

// Index holds the adjacency views of a single graph. It is built once from a
// triple slice and is read-only afterwards, so it may be shared freely.
type Index struct {
	outgoing  map[string][]Edge
	incoming  map[string][]Edge
	instances map[string]string
	sources   map[string]struct{}
	edgeCount int
}

// NewIndex builds the forward, reverse and instance views in a single pass.
// Edge order within each view follows the order of triples.
func NewIndex(triples []schemas.Triple) *Index {
	idx := &Index{
		outgoing:  make(map[string][]Edge),
		incoming:  make(map[string][]Edge),
		instances: make(map[string]string),
		sources:   make(map[string]struct{}),
		edgeCount: len(triples),
	}
	for _, t := range triples {
		idx.sources[t.Source] = struct{}{}
		idx.outgoing[t.Source] = append(idx.outgoing[t.Source], Edge{Role: t.Role, Node: t.Target})
		if t.Role == schemas.RoleInstance {
			// The first concept assigned to a node wins.
			if _, ok := idx.instances[t.Source]; !ok {
				idx.instances[t.Source] = t.Target
			}
			continue
		}
		idx.incoming[t.Target] = append(idx.incoming[t.Target], Edge{Role: t.Role, Node: t.Source})
	}
	return idx
}

// NewGraphIndex is a convenience wrapper for indexing a decoded graph.
func NewGraphIndex(g *schemas.Graph) *Index {
	if g == nil {
		return NewIndex(nil)
	}
	return NewIndex(g.Triples)
}

// Outgoing returns the forward edges of a node in triple order.
func (idx *Index) Outgoing(node string) []Edge {
	return idx.outgoing[node]
}

// Incoming returns the edges pointing at a node. Instance triples are not
// edges between nodes and never show up here.
func (idx *Index) Incoming(node string) []Edge {
	return idx.incoming[node]
}

// IncomingRoles lists the role labels of Incoming(node).
func (idx *Index) IncomingRoles(node string) []string {
	in := idx.incoming[node]
	if len(in) == 0 {
		return nil
	}
	roles := make([]string, len(in))
	for i, e := range in {
		roles[i] = e.Role
	}
	return roles
}

// Concept returns the concept assigned to node by its instance triple.
func (idx *Index) Concept(node string) (string, bool) {
	c, ok := idx.instances[node]
	return c, ok
}

// IsNode reports whether id is the source of at least one triple. Anything
// else that appears as a target is a literal.
func (idx *Index) IsNode(id string) bool {
	_, ok := idx.sources[id]
	return ok
}

// Len returns the number of triples the index was built from.
func (idx *Index) Len() int {
	return idx.edgeCount
}
