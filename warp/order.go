package warp

import (
	"sort"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
)

// ComputeOrder builds the canonical order/rank permutations of spec §4.3
// step 2, keyed per §3: (min(slots(n)), -|slots(n)|, level_order(type(n)), n).
func ComputeOrder(otype cfm.DenseInt32, oslots cfm.CSR, types []cfm.TypeDescriptor, nodeCount, slotCount int) (order, rank cfm.DenseUint32) {
	levelOrder := make(map[int32]int, len(types))
	for _, t := range types {
		levelOrder[int32(t.ID)] = t.LevelOrder
	}

	nodes := make([]uint32, nodeCount)
	for i := range nodes {
		nodes[i] = uint32(i + 1)
	}

	first := make([]int32, nodeCount)
	size := make([]int32, nodeCount)
	level := make([]int, nodeCount)
	for n := 1; n <= nodeCount; n++ {
		f, _ := FirstLastSlot(oslots, slotCount, core.NodeID(n))
		first[n-1] = int32(f)
		size[n-1] = int32(SlotCount(oslots, slotCount, core.NodeID(n)))
		level[n-1] = levelOrder[otype.Values[n-1]]
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := int(nodes[i])-1, int(nodes[j])-1
		if first[a] != first[b] {
			return first[a] < first[b]
		}
		if size[a] != size[b] {
			return size[a] > size[b] // -|slots(n)|: larger span first
		}
		if level[a] != level[b] {
			return level[a] < level[b]
		}
		return nodes[i] < nodes[j]
	})

	rankVals := make([]uint32, nodeCount)
	for pos, n := range nodes {
		rankVals[n-1] = uint32(pos + 1)
	}

	return cfm.DenseUint32{Values: nodes}, cfm.DenseUint32{Values: rankVals}
}

// ComputeLevels groups nodes into the per-type contiguous ranges of spec
// §4.3 step 3. Node ids are assigned per type in contiguous blocks at
// compile time, so each type's (min_node, max_node, count) is a plain
// node-id range; this is what lets N.Walk clip to a type without a full
// otype scan. types is iterated in declaration order so warp/levels.bin
// has one row per declared type in that order.
func ComputeLevels(otype cfm.DenseInt32, types []cfm.TypeDescriptor, nodeCount int) []cfm.LevelRange {
	byType := make(map[int32]*cfm.LevelRange, len(types))
	out := make([]cfm.LevelRange, len(types))
	for i, t := range types {
		out[i] = cfm.LevelRange{TypeID: t.ID}
		byType[int32(t.ID)] = &out[i]
	}

	for n := 1; n <= nodeCount; n++ {
		lr := byType[otype.Values[n-1]]
		if lr == nil {
			continue
		}
		if lr.Count == 0 || uint32(n) < lr.MinNode {
			lr.MinNode = uint32(n)
		}
		if uint32(n) > lr.MaxNode {
			lr.MaxNode = uint32(n)
		}
		lr.Count++
	}
	return out
}
