// Package nav implements the three navigation operators of spec §4.4: N
// (canonical walk), L (locality: embedders/embeddees/adjacents), and T
// (text rendering and section references).
package nav

import (
	"iter"
	"sort"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/ferr"
)

// N is the stateless canonical-walk operator. It holds only a store
// reference: like L and T, it is a small struct over *cfm.Store rather
// than a namespace.
type N struct {
	Store *cfm.Store
}

// Walk yields node ids in canonical order. With no types, it walks every
// node 1..NodeCount in rank order. With types, it clips to each named
// type's node-id range in warp/levels.bin and merges by rank — spec §4.4:
// "restricts to nodes whose type is in the given set by clipping to
// per-type ranges in levels and merging by rank".
func (n N) Walk(types ...string) (iter.Seq[core.NodeID], error) {
	if len(types) == 0 {
		return func(yield func(core.NodeID) bool) {
			for _, node := range n.Store.Order.Values {
				if !yield(core.NodeID(node)) {
					return
				}
			}
		}, nil
	}

	var candidates []uint32
	for _, name := range types {
		td, ok := n.Store.Meta.TypeByName(name)
		if !ok {
			return nil, &ferr.UnknownType{Name: name}
		}
		lr := levelRangeFor(n.Store.Levels, td.ID)
		for node := lr.MinNode; node <= lr.MaxNode && lr.Count > 0; node++ {
			if int(n.Store.OType.Values[node-1]) == td.ID {
				candidates = append(candidates, node)
			}
		}
	}
	sortByRank(candidates, n.Store.Rank)

	return func(yield func(core.NodeID) bool) {
		for _, node := range candidates {
			if !yield(core.NodeID(node)) {
				return
			}
		}
	}, nil
}

func levelRangeFor(levels []cfm.LevelRange, typeID int) cfm.LevelRange {
	for _, lr := range levels {
		if lr.TypeID == typeID {
			return lr
		}
	}
	return cfm.LevelRange{}
}

func sortByRank(nodes []uint32, rank cfm.DenseUint32) {
	sort.Slice(nodes, func(i, j int) bool { return rank.Values[nodes[i]-1] < rank.Values[nodes[j]-1] })
}
