// Package warp computes the precomputed structural indices of spec §4.3:
// first/last slot, canonical order and rank, per-type level ranges, and
// the levUp/levDown embedding relations — plus the runtime RAM preload
// for the two embedding CSRs.
package warp

import (
	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
)

// Slots returns slots(n): {n} for a slot node, the sorted oslots row for
// a non-slot node.
func Slots(oslots cfm.CSR, slotCount int, n core.NodeID) []core.NodeID {
	if int(n) <= slotCount {
		return []core.NodeID{n}
	}
	i := int(n) - slotCount - 1
	row := oslots.Row(i)
	out := make([]core.NodeID, len(row))
	for j, v := range row {
		out[j] = core.NodeID(v)
	}
	return out
}

// SlotCount returns |slots(n)| without materializing the slice.
func SlotCount(oslots cfm.CSR, slotCount int, n core.NodeID) int {
	if int(n) <= slotCount {
		return 1
	}
	i := int(n) - slotCount - 1
	return int(oslots.Offsets[i+1] - oslots.Offsets[i])
}

// FirstLastSlot returns min/max of slots(n). oslots rows are stored
// ascending and duplicate-free (spec §3), so the row's first and last
// entries already are the min and max.
func FirstLastSlot(oslots cfm.CSR, slotCount int, n core.NodeID) (first, last core.NodeID) {
	if int(n) <= slotCount {
		return n, n
	}
	i := int(n) - slotCount - 1
	row := oslots.Row(i)
	if len(row) == 0 {
		return core.NoNode, core.NoNode
	}
	return core.NodeID(row[0]), core.NodeID(row[len(row)-1])
}

// ContainsSlot reports whether slot s is a member of slots(n), by binary
// search on the sorted oslots row (O(log k) instead of a linear scan).
func ContainsSlot(oslots cfm.CSR, slotCount int, n, s core.NodeID) bool {
	if int(n) <= slotCount {
		return n == s
	}
	i := int(n) - slotCount - 1
	row := oslots.Row(i)
	lo, hi := 0, len(row)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case core.NodeID(row[mid]) == s:
			return true
		case core.NodeID(row[mid]) < s:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}
