package centrality

// Role weights. Agent-like roles dominate, then patient/theme roles, then
// modifiers; anything unlisted gets DefaultWeight.
const (
	AgentWeight    = 0.9
	PatientWeight  = 0.7
	ModifierWeight = 0.6
	DefaultWeight  = 0.4

	// RootWeight applies to a fairness node that is the top of its graph.
	RootWeight = 1.0
)

var roleWeights = map[string]float64{
	":ARG0":    AgentWeight,
	":ARG0-of": AgentWeight,
	":ARG1":    PatientWeight,
	":ARG2":    PatientWeight,
	":ARG3":    PatientWeight,
	":domain":  ModifierWeight,
	":mod":     ModifierWeight,
}

// RoleWeight returns the weight of an incoming role label.
func RoleWeight(role string) float64 {
	if w, ok := roleWeights[role]; ok {
		return w
	}
	return DefaultWeight
}

// nodeWeight is the largest weight among roles. A node with no incoming roles
// gets RootWeight when the graph's top carries a concept and DefaultWeight
// otherwise.
func nodeWeight(roles []string, topHasConcept bool) float64 {
	if len(roles) == 0 {
		if topHasConcept {
			return RootWeight
		}
		return DefaultWeight
	}
	w := RoleWeight(roles[0])
	for _, r := range roles[1:] {
		if rw := RoleWeight(r); rw > w {
			w = rw
		}
	}
	return w
}
