package knowledgegraph

import (
	"github.com/xkilldash9x/fairgraph/api/schemas"
)

// Distances runs a breadth-first search from root over forward edges and
// returns the hop count of every node it reaches. Unreached nodes are absent.
// Self-loops are skipped and each node is visited once, so the first distance
// recorded is the shortest.
func (idx *Index) Distances(root string) map[string]int {
	dist := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range idx.outgoing[cur] {
			if e.Node == cur {
				continue
			}
			if _, seen := dist[e.Node]; seen {
				continue
			}
			dist[e.Node] = dist[cur] + 1
			queue = append(queue, e.Node)
		}
	}
	return dist
}

// Reachable returns the set of nodes visited by a depth-first traversal from
// root, root included.
func (idx *Index) Reachable(root string) map[string]struct{} {
	visited := make(map[string]struct{})
	stack := []string{root}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		out := idx.outgoing[cur]
		for i := len(out) - 1; i >= 0; i-- {
			if _, ok := visited[out[i].Node]; !ok {
				stack = append(stack, out[i].Node)
			}
		}
	}
	return visited
}

// Connected restricts triples to the forward closure of top. The relative
// order of the surviving triples is unchanged and no triple is repeated.
func Connected(triples []schemas.Triple, top string) []schemas.Triple {
	visited := NewIndex(triples).Reachable(top)
	var out []schemas.Triple
	for _, t := range triples {
		if _, ok := visited[t.Source]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Extract builds an independent graph rooted at subroot from the triples
// reachable from it.
func Extract(triples []schemas.Triple, subroot string) *schemas.Graph {
	return &schemas.Graph{Top: subroot, Triples: Connected(triples, subroot)}
}
