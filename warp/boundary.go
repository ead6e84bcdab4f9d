package warp

import (
	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
)

// ComputeBoundary builds the two first_slot/last_slot arrays of
// warp/boundary.bin (spec §4.3 step 1).
func ComputeBoundary(oslots cfm.CSR, nodeCount, slotCount int) cfm.Boundary {
	first := make([]int32, nodeCount)
	last := make([]int32, nodeCount)
	for n := 1; n <= nodeCount; n++ {
		f, l := FirstLastSlot(oslots, slotCount, core.NodeID(n))
		first[n-1] = int32(f)
		last[n-1] = int32(l)
	}
	return cfm.Boundary{
		FirstSlot: cfm.DenseInt32{Values: first},
		LastSlot:  cfm.DenseInt32{Values: last},
	}
}
