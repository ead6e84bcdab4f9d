package spin

import (
	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/warp"
)

// invertRel maps a relation to the one that holds when its two operands
// are swapped: "bound REL other" holds iff "other invertRel(REL) bound"
// holds. Used to restrict the declared-from atom's candidates when the
// declared-to atom is the side already bound.
var invertRel = map[RelOp]RelOp{
	RelBefore: RelAfter, RelAfter: RelBefore,
	RelImmBefore: RelImmAfter, RelImmAfter: RelImmBefore,
	RelSlotBefore: RelSlotAfter, RelSlotAfter: RelSlotBefore,
	RelEmbeds: RelEmbeddedIn, RelEmbeddedIn: RelEmbeds,
	RelShareFirst: RelShareFirst, RelShareLast: RelShareLast,
	RelCoextensive: RelCoextensive, RelSameSlots: RelSameSlots,
}

// restrictByRelation keeps the members of candidates for which
// "bound rel other" holds, per spec §4.5 step 5's per-operator join
// rules. otherTypeID is the candidate atom's type id, -1 for the "."
// sentinel; it is only consulted by the immediate-adjacency operators,
// which need to know which type's nearest neighbor to look for.
func restrictByRelation(rel RelOp, bound core.NodeID, otherTypeID int, candidates *feature.NodeSet, store *cfm.Store) *feature.NodeSet {
	switch rel {
	case RelBefore:
		return filterByRank(candidates, store, func(r uint32) bool { return r > store.Rank.Values[bound-1] })
	case RelAfter:
		return filterByRank(candidates, store, func(r uint32) bool { return r < store.Rank.Values[bound-1] })
	case RelImmBefore:
		return singleton(candidates, nearestOfType(store, bound, otherTypeID, +1))
	case RelImmAfter:
		return singleton(candidates, nearestOfType(store, bound, otherTypeID, -1))
	case RelSlotBefore:
		lastSlot := store.Boundary.LastSlot.Values[bound-1]
		return filterBySlot(candidates, store, func(first, _ int32) bool { return first > lastSlot })
	case RelSlotAfter:
		firstSlot := store.Boundary.FirstSlot.Values[bound-1]
		return filterBySlot(candidates, store, func(_, last int32) bool { return last < firstSlot })
	case RelEmbeds:
		return intersectRow(candidates, store.LevDown, bound)
	case RelEmbeddedIn:
		return intersectRow(candidates, store.LevUp, bound)
	case RelShareFirst:
		first := store.Boundary.FirstSlot.Values[bound-1]
		return filterBySlot(candidates, store, func(f, _ int32) bool { return f == first })
	case RelShareLast:
		last := store.Boundary.LastSlot.Values[bound-1]
		return filterBySlot(candidates, store, func(_, l int32) bool { return l == last })
	case RelCoextensive:
		first, last := store.Boundary.FirstSlot.Values[bound-1], store.Boundary.LastSlot.Values[bound-1]
		return filterBySlot(candidates, store, func(f, l int32) bool { return f == first && l == last })
	case RelSameSlots:
		return filterBySameSlots(candidates, store, bound)
	default:
		return feature.NewNodeSet()
	}
}

func filterByRank(candidates *feature.NodeSet, store *cfm.Store, keep func(rank uint32) bool) *feature.NodeSet {
	out := feature.NewNodeSet()
	for n := range candidates.Nodes() {
		if keep(store.Rank.Values[n-1]) {
			out.Add(n)
		}
	}
	return out
}

func filterBySlot(candidates *feature.NodeSet, store *cfm.Store, keep func(first, last int32) bool) *feature.NodeSet {
	out := feature.NewNodeSet()
	for n := range candidates.Nodes() {
		if keep(store.Boundary.FirstSlot.Values[n-1], store.Boundary.LastSlot.Values[n-1]) {
			out.Add(n)
		}
	}
	return out
}

func filterBySameSlots(candidates *feature.NodeSet, store *cfm.Store, bound core.NodeID) *feature.NodeSet {
	slotCount := int(store.Meta.SlotCount)
	boundSlots := warp.Slots(store.OSlots, slotCount, bound)
	out := feature.NewNodeSet()
	for n := range candidates.Nodes() {
		if slotsEqual(boundSlots, warp.Slots(store.OSlots, slotCount, n)) {
			out.Add(n)
		}
	}
	return out
}

func slotsEqual(a, b []core.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intersectRow(candidates *feature.NodeSet, csr cfm.CSR, n core.NodeID) *feature.NodeSet {
	i := int(n) - 1
	if i < 0 || i >= csr.NumRows() {
		return feature.NewNodeSet()
	}
	row := csr.Row(i)
	out := feature.NewNodeSet()
	for _, v := range row {
		if candidates.Contains(core.NodeID(v)) {
			out.Add(core.NodeID(v))
		}
	}
	return out
}

func singleton(candidates *feature.NodeSet, n core.NodeID) *feature.NodeSet {
	out := feature.NewNodeSet()
	if n != core.NoNode && candidates.Contains(n) {
		out.Add(n)
	}
	return out
}

// nearestOfType scans store.Order from n's position in direction step
// (+1 forward, -1 backward), returning the first node matching typeID
// (-1 matches any type), or core.NoNode if none exists.
func nearestOfType(store *cfm.Store, n core.NodeID, typeID, step int) core.NodeID {
	pos := int(store.Rank.Values[n-1]) - 1
	order := store.Order.Values
	for i := pos + step; i >= 0 && i < len(order); i += step {
		m := order[i]
		if typeID == -1 || int(store.OType.Values[m-1]) == typeID {
			return core.NodeID(m)
		}
	}
	return core.NoNode
}
