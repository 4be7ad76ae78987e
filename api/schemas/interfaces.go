package schemas

import "context"

// -- Codec Interface --

// GraphCodec converts between serialized graph blocks and Graph values.
// Index, reachability and scoring only ever see the decoded Graph, so another
// notation can be plugged in without touching them.
type GraphCodec interface {
	// Decode parses one block. It returns an error and no triples when the
	// block is malformed.
	Decode(block string) (*Graph, error)
	// Encode serializes a graph rooted at its top node.
	Encode(g *Graph) (string, error)
}

// -- Store Interface --

// Store persists the outcome of a command run.
type Store interface {
	// SaveRun records the run itself.
	SaveRun(ctx context.Context, run Run) error
	// SaveScores records every scored block of a run.
	SaveScores(ctx context.Context, runID string, scores []ScoredGraph) error
	// SaveSentences records every sentence graph kept by a run.
	SaveSentences(ctx context.Context, runID string, sentences []Sentence) error
}
