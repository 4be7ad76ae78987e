// Package fairness finds the nodes of a graph that carry the fairness concept
// and filters serialized graphs by keyword.
package fairness

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/btree"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/knowledgegraph"
)

// Pattern matches "fairness" or "fair-<digits>" as a whole word in any case.
var Pattern = regexp.MustCompile(`(?i)\b(?:fairness|fair-[0-9]+)\b`)

// NodeSet is an ordered set of node ids. The zero value is empty and ready to use.
type NodeSet struct {
	set btree.Set[string]
}

// Add inserts id; adding an id twice has no effect.
func (s *NodeSet) Add(id string) {
	s.set.Insert(id)
}

// Contains reports whether id is in the set.
func (s *NodeSet) Contains(id string) bool {
	return s.set.Contains(id)
}

// Len returns the number of distinct ids.
func (s *NodeSet) Len() int {
	return s.set.Len()
}

// IDs returns the ids in ascending order.
func (s *NodeSet) IDs() []string {
	ids := make([]string, 0, s.set.Len())
	s.set.Scan(func(id string) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Detect collects the source of every triple whose target is a literal that
// matches Pattern. A target is a literal when it is not itself a node.
func Detect(triples []schemas.Triple) *NodeSet {
	return DetectIndexed(knowledgegraph.NewIndex(triples), triples)
}

// DetectIndexed is Detect for callers that already hold an index of triples.
func DetectIndexed(idx *knowledgegraph.Index, triples []schemas.Triple) *NodeSet {
	nodes := &NodeSet{}
	for _, t := range triples {
		if idx.IsNode(t.Target) {
			continue
		}
		if Pattern.MatchString(t.Target) {
			nodes.Add(t.Source)
		}
	}
	return nodes
}

// KeywordMatcher tests serialized text for a keyword as a whole word,
// ignoring case.
type KeywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

// NewKeywordMatcher compiles a matcher for keyword. The keyword is matched
// literally.
func NewKeywordMatcher(keyword string) (*KeywordMatcher, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword must not be empty")
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile keyword %q: %w", keyword, err)
	}
	return &KeywordMatcher{keyword: keyword, re: re}, nil
}

// Keyword returns the keyword the matcher was built for.
func (m *KeywordMatcher) Keyword() string {
	return m.keyword
}

// Match reports whether text contains the keyword.
func (m *KeywordMatcher) Match(text string) bool {
	return m.re.MatchString(text)
}
