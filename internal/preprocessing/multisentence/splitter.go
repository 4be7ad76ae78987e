// Package multisentence breaks multi-sentence graphs into one graph per
// sentence and keeps the sentences that mention a keyword.
package multisentence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/knowledgegraph"
)

// DefaultSentenceRolePrefix marks the roles that attach a sentence to a
// multi-sentence root, e.g. :snt1, :snt2.
const DefaultSentenceRolePrefix = ":snt"

// Partition is the result of splitting one graph.
type Partition struct {
	// Parent holds what is left of the original graph once the sentence
	// edges are cut, restricted to what the top still reaches. Nil when
	// nothing remains.
	Parent *schemas.Graph
	// Sentences are rooted at the sentence edge targets, in edge order.
	Sentences []*schemas.Graph
	// Removed are the cut sentence edges.
	Removed []schemas.Triple
}

// Graphs returns the parent (if any) followed by the sentences.
func (p *Partition) Graphs() []*schemas.Graph {
	out := make([]*schemas.Graph, 0, len(p.Sentences)+1)
	if p.Parent != nil {
		out = append(out, p.Parent)
	}
	return append(out, p.Sentences...)
}

// Splitter cuts graphs at their sentence roles.
type Splitter struct {
	codec  schemas.GraphCodec
	prefix string
	logger *zap.Logger
}

// NewSplitter creates a splitter for roles starting with prefix. An empty
// prefix selects DefaultSentenceRolePrefix.
func NewSplitter(codec schemas.GraphCodec, prefix string, logger *zap.Logger) *Splitter {
	if prefix == "" {
		prefix = DefaultSentenceRolePrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Splitter{codec: codec, prefix: prefix, logger: logger.Named("multisentence")}
}

// IsSentenceRole reports whether role attaches a sentence.
func (s *Splitter) IsSentenceRole(role string) bool {
	return strings.HasPrefix(role, s.prefix)
}

// Split partitions g. Without sentence edges the whole graph is returned as
// the parent. Otherwise every sentence edge is cut and each sentence is the
// closure of its target over the remaining triples, so a sentence nested in
// another sentence is not repeated inside it.
func (s *Splitter) Split(g *schemas.Graph) *Partition {
	var cut []schemas.Triple
	targets := make(map[string]struct{})
	for _, t := range g.Triples {
		if s.IsSentenceRole(t.Role) {
			cut = append(cut, t)
			targets[t.Target] = struct{}{}
		}
	}
	if len(cut) == 0 {
		return &Partition{Parent: g}
	}

	// A sentence edge is removed when it points at any sentence target, not
	// only its own, so no target is re-attached through a second edge.
	remaining := make([]schemas.Triple, 0, len(g.Triples)-len(cut))
	var removed []schemas.Triple
	for _, t := range g.Triples {
		if _, ok := targets[t.Target]; ok && s.IsSentenceRole(t.Role) {
			removed = append(removed, t)
			continue
		}
		remaining = append(remaining, t)
	}

	p := &Partition{Removed: removed}
	for _, t := range cut {
		p.Sentences = append(p.Sentences, knowledgegraph.Extract(remaining, t.Target))
	}
	if parent := knowledgegraph.Connected(remaining, g.Top); len(parent) > 0 {
		p.Parent = &schemas.Graph{Top: g.Top, Triples: parent}
	}
	return p
}

// SplitBlock decodes a block, splits it and serializes every part. A block
// that fails to decode yields an error and no sentences. Parts that cannot be
// serialized are logged and skipped.
func (s *Splitter) SplitBlock(ctx context.Context, id int, block string) ([]string, error) {
	g, err := s.codec.Decode(block)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	graphs := s.Split(g).Graphs()
	out := make([]string, 0, len(graphs))
	for _, part := range graphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := s.codec.Encode(part)
		if err != nil {
			s.logger.Warn("Skipping sentence graph that cannot be serialized",
				zap.Int("block", id), zap.String("top", part.Top), zap.Error(err))
			continue
		}
		out = append(out, text)
	}
	if len(out) == 0 && len(graphs) > 0 {
		return nil, fmt.Errorf("no part of block %d could be serialized", id)
	}
	return out, nil
}
