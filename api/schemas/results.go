package schemas

import "time"

// -- Per-block Results --

// BlockFailure records why a single block produced no usable graph. It travels
// on the result value so one bad block never aborts the batch.
type BlockFailure struct {
	Block  int    `json:"block" yaml:"block"`
	Reason string `json:"reason" yaml:"reason"`
}

// ScoredGraph is the centrality outcome for one block.
type ScoredGraph struct {
	ID            int           `json:"gid" yaml:"gid"`
	Score         float64       `json:"score" yaml:"score"`
	FairnessNodes int           `json:"fairness_nodes" yaml:"fairness_nodes"`
	AMR           string        `json:"amr" yaml:"amr"`
	Failure       *BlockFailure `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Sentence is one sentence-level graph produced by splitting a block.
type Sentence struct {
	Block    int    `json:"block" yaml:"block"`
	Position int    `json:"position" yaml:"position"`
	AMR      string `json:"amr" yaml:"amr"`
}

// -- Summary Models --

// CountEntry is one row of a frequency table.
type CountEntry struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// RelationExample pairs a neighbouring concept with the role that links it.
type RelationExample struct {
	Concept string `json:"concept" yaml:"concept"`
	Role    string `json:"role" yaml:"role"`
}

// FamilyExamples holds the first few examples observed for one role family.
type FamilyExamples struct {
	Family   string            `json:"family" yaml:"family"`
	Examples []RelationExample `json:"examples" yaml:"examples"`
}

// SummaryReport aggregates where fairness concepts sit across a corpus.
type SummaryReport struct {
	Graphs          int              `json:"graphs" yaml:"graphs"`
	Failures        []BlockFailure   `json:"failures,omitempty" yaml:"failures,omitempty"`
	Positions       []CountEntry     `json:"positions" yaml:"positions"`
	ParentRoles     []CountEntry     `json:"parent_roles" yaml:"parent_roles"`
	ParentConcepts  []CountEntry     `json:"parent_concepts" yaml:"parent_concepts"`
	ChildRoles      []CountEntry     `json:"child_roles" yaml:"child_roles"`
	SiblingConcepts []CountEntry     `json:"sibling_concepts" yaml:"sibling_concepts"`
	ParentExamples  []FamilyExamples `json:"parent_examples" yaml:"parent_examples"`
	ChildExamples   []FamilyExamples `json:"child_examples" yaml:"child_examples"`
}

// -- Persistence Models --

// Run identifies one command invocation over one input file.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Command   string    `json:"command" yaml:"command"`
	InputPath string    `json:"input_path" yaml:"input_path"`
	Blocks    int       `json:"blocks" yaml:"blocks"`
	Failures  int       `json:"failures" yaml:"failures"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
