package warp

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
)

// ComputeLevUp builds the levUp CSR of spec §4.3 step 4: for each node n,
// the set {m : slots(n) ⊆ slots(m), m ≠ n}, sorted by decreasing |slots(m)|
// then by ascending rank[m] — the pinned tie-break from the Open Questions
// (equal span ties break by ascending rank, not insertion order).
//
// Candidate supersets are found by interval containment on
// (first_slot, last_slot), then confirmed by full slot-set containment for
// non-contiguous candidates (a node whose slots have gaps, e.g. a
// discontinuous phrase, can have an interval that contains n's interval
// without actually containing every one of n's slots). Each non-slot type
// is scanned by its own goroutine, restricted to candidate nodes m of that
// type; the per-node result lists are merged after every type has
// finished, so each true levUp entry is produced by exactly one goroutine.
func ComputeLevUp(ctx context.Context, otype cfm.DenseInt32, oslots cfm.CSR, boundary cfm.Boundary, rank cfm.DenseUint32, types []cfm.TypeDescriptor, nodeCount, slotCount int) (cfm.CSR, error) {
	nonSlotTypes := make([]cfm.TypeDescriptor, 0, len(types))
	for _, t := range types {
		if !t.SlotType {
			nonSlotTypes = append(nonSlotTypes, t)
		}
	}

	members := make([][]uint32, nodeCount) // levUp(n) candidates, unsorted, per node
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range nonSlotTypes {
		t := t
		g.Go(func() error {
			local := make(map[uint32][]uint32) // n -> []m local to this type's candidates
			for m := 1; m <= nodeCount; m++ {
				if int(otype.Values[m-1]) != t.ID {
					continue // this goroutine only owns candidates of type t
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				mf, ml := int32(boundary.FirstSlot.Values[m-1]), int32(boundary.LastSlot.Values[m-1])
				// scan every node n whose interval m could contain; a non-slot
				// candidate m only embeds nodes with a smaller or equal span.
				for n := 1; n <= nodeCount; n++ {
					if n == m {
						continue
					}
					nf, nl := boundary.FirstSlot.Values[n-1], boundary.LastSlot.Values[n-1]
					if int32(nf) < mf || int32(nl) > ml {
						continue // not interval-contained
					}
					if !slotSetContained(oslots, slotCount, core.NodeID(n), core.NodeID(m)) {
						continue
					}
					local[uint32(n)] = append(local[uint32(n)], uint32(m))
				}
			}
			mu.Lock()
			for n, ms := range local {
				members[n-1] = append(members[n-1], ms...)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cfm.CSR{}, err
	}

	return buildSortedCSR(members, oslots, slotCount, rank)
}

// ComputeLevDown inverts levUp, with rows sorted by ascending rank (spec
// §4.3 step 5).
func ComputeLevDown(levUp cfm.CSR, rank cfm.DenseUint32, nodeCount int) cfm.CSR {
	counts := make([]uint32, nodeCount+1)
	for _, m := range levUp.Values {
		counts[m]++ // m is a node id 1..N; counts[m] aggregates into offsets[m]
	}
	offsets := make([]uint32, nodeCount+1)
	for i := 1; i <= nodeCount; i++ {
		offsets[i] = offsets[i-1] + counts[i]
	}
	values := make([]uint32, offsets[nodeCount])
	cursor := append([]uint32(nil), offsets...)
	for n := 1; n <= nodeCount; n++ {
		for _, m := range levUp.Row(n - 1) {
			values[cursor[m-1]] = uint32(n)
			cursor[m-1]++
		}
	}
	for m := 0; m < nodeCount; m++ {
		row := values[offsets[m]:offsets[m+1]]
		sort.Slice(row, func(i, j int) bool { return rank.Values[row[i]-1] < rank.Values[row[j]-1] })
	}
	return cfm.CSR{Offsets: offsets, Values: values}
}

// slotSetContained reports whether slots(n) ⊆ slots(m).
func slotSetContained(oslots cfm.CSR, slotCount int, n, m core.NodeID) bool {
	for _, s := range Slots(oslots, slotCount, n) {
		if !ContainsSlot(oslots, slotCount, m, s) {
			return false
		}
	}
	return true
}

func buildSortedCSR(members [][]uint32, oslots cfm.CSR, slotCount int, rank cfm.DenseUint32) (cfm.CSR, error) {
	n := len(members)
	offsets := make([]uint32, n+1)
	for i, ms := range members {
		offsets[i+1] = offsets[i] + uint32(len(ms))
	}
	values := make([]uint32, offsets[n])
	for i, ms := range members {
		sort.Slice(ms, func(a, b int) bool {
			sa := SlotCount(oslots, slotCount, core.NodeID(ms[a]))
			sb := SlotCount(oslots, slotCount, core.NodeID(ms[b]))
			if sa != sb {
				return sa > sb // decreasing |slots(m)|
			}
			return rank.Values[ms[a]-1] < rank.Values[ms[b]-1] // ascending rank[m]
		})
		copy(values[offsets[i]:offsets[i+1]], ms)
	}
	return cfm.CSR{Offsets: offsets, Values: values}, nil
}
