package spin

import (
	"sort"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/feature"
)

// edge is one declared structural relation between two atoms:
// "A rel B", read from either a ParentRel or a SiblingRel field.
type edge struct {
	a, b int
	rel  RelOp
}

// Plan is a compiled, ordered join strategy for one Template (or
// quantifier Body): a spin order to bind atoms in, and the edges the
// join step consults to restrict each newly visited atom's candidates.
type Plan struct {
	Template  *Template
	Order     []int
	Edges     []edge
	estimate  map[int]float64
}

// BuildPlan runs spec §4.5 steps 2–3: per-atom cardinality estimation
// from compile-time feature histograms, then a greedy spin order.
func BuildPlan(tmpl *Template, store *cfm.Store, registry *feature.Registry) (*Plan, error) {
	var edges []edge
	for _, a := range tmpl.Atoms {
		if a.ParentID != -1 {
			edges = append(edges, edge{a: a.ParentID, b: a.ID, rel: a.ParentRel})
		}
		if a.SiblingID != -1 {
			edges = append(edges, edge{a: a.SiblingID, b: a.ID, rel: a.SiblingRel})
		}
	}

	estimate := make(map[int]float64, len(tmpl.Atoms))
	for _, a := range tmpl.Atoms {
		est, err := estimateCardinality(a, store, registry)
		if err != nil {
			return nil, err
		}
		estimate[a.ID] = est
	}

	order := greedyOrder(tmpl.Atoms, edges, estimate)
	return &Plan{Template: tmpl, Order: order, Edges: edges, estimate: estimate}, nil
}

// estimateCardinality implements spec §4.5 step 2: |T| × ∏ selectivity(c).
func estimateCardinality(a *Atom, store *cfm.Store, registry *feature.Registry) (float64, error) {
	_, typeCount, err := typeRange(a, store)
	if err != nil {
		return 0, err
	}
	est := float64(typeCount)
	for _, pred := range a.Predicates {
		est *= selectivity(pred, store, registry, typeCount)
	}
	return est, nil
}

// greedyOrder implements spec §4.5 step 3: start from the lowest estimated
// cardinality atom, then repeatedly pick the unvisited atom with the
// smallest estimate, preferring one already adjacent to the bound set
// (a neighbor relation prunes its effective candidate set, even though
// the static estimate doesn't capture that discount directly) — ties
// broken by ascending atom ID (template order).
func greedyOrder(atoms []*Atom, edges []edge, estimate map[int]float64) []int {
	adjacency := make(map[int][]int, len(atoms))
	for _, e := range edges {
		adjacency[e.a] = append(adjacency[e.a], e.b)
		adjacency[e.b] = append(adjacency[e.b], e.a)
	}

	ids := make([]int, len(atoms))
	for i, a := range atoms {
		ids[i] = a.ID
	}
	sort.Slice(ids, func(i, j int) bool {
		if estimate[ids[i]] != estimate[ids[j]] {
			return estimate[ids[i]] < estimate[ids[j]]
		}
		return ids[i] < ids[j]
	})

	visited := make(map[int]bool, len(atoms))
	var order []int
	for len(order) < len(atoms) {
		best, bestScore, bestAdjacent := -1, 0.0, false
		for _, id := range ids {
			if visited[id] {
				continue
			}
			adjacent := isAdjacentToBound(id, adjacency, visited)
			score := estimate[id]
			if adjacent {
				score *= adjacentDiscount
			}
			if best == -1 || (adjacent && !bestAdjacent) || (adjacent == bestAdjacent && score < bestScore) {
				best, bestScore, bestAdjacent = id, score, adjacent
			}
		}
		order = append(order, best)
		visited[best] = true
	}
	return order
}

// adjacentDiscount approximates "further conditioned by the already-bound
// neighbor relations that can prune it" (spec §4.5 step 3) as a fixed
// multiplier rather than re-deriving a live estimate from the bound
// neighbor's actual adjacency-set size, which would require partially
// executing the join during planning.
const adjacentDiscount = 0.1

func isAdjacentToBound(id int, adjacency map[int][]int, visited map[int]bool) bool {
	for _, n := range adjacency[id] {
		if visited[n] {
			return true
		}
	}
	return false
}
