package schemas

// -- Semantic Graph Models --
// A graph is held as an ordered list of triples plus a designated top node.
// Nodes are plain string identifiers, so re-entrant references share identity
// instead of being copied.

// RoleInstance is the reserved role asserting a node's concept label.
const RoleInstance = ":instance"

// RolePrefix marks an edge label as a role rather than a plain value.
const RolePrefix = ":"

// Triple is a single (source, role, target) assertion. Target is either another
// node identifier or a literal value; for RoleInstance it is the concept label.
type Triple struct {
	Source string `json:"source" yaml:"source"`
	Role   string `json:"role" yaml:"role"`
	Target string `json:"target" yaml:"target"`
}

// Graph is an ordered set of triples with a designated entry node.
type Graph struct {
	Top     string   `json:"top" yaml:"top"`
	Triples []Triple `json:"triples" yaml:"triples"`
}
