package feature

import (
	"sort"
	"sync"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/model"
)

// EdgeFeature is the edge-feature backend of spec §4.2: a CSR of
// source→destinations, optionally with a parallel per-edge value. The
// inverse (dest→sources) view is materialized lazily on first use.
type EdgeFeature struct {
	name string
	fwd  cfm.CSR // source → destinations, indexed by source-1

	invOnce sync.Once
	inv     cfm.CSR // dest → sources, built by inverting fwd
}

// NewEdgeFeature wraps a decoded edge CSR under name.
func NewEdgeFeature(name string, csr cfm.CSR) *EdgeFeature {
	return &EdgeFeature{name: name, fwd: csr}
}

func (e *EdgeFeature) Name() string { return e.name }

// F returns the destinations reachable from n ("from" direction).
func (e *EdgeFeature) F(n core.NodeID) []core.NodeID {
	i := int(n) - 1
	if i < 0 || i >= e.fwd.NumRows() {
		return nil
	}
	return toNodeIDs(e.fwd.Row(i))
}

// T returns the sources that reach n ("to" direction), building the
// inverse CSR once on first call.
func (e *EdgeFeature) T(n core.NodeID) []core.NodeID {
	e.ensureInverse()
	i := int(n) - 1
	if i < 0 || i >= e.inv.NumRows() {
		return nil
	}
	return toNodeIDs(e.inv.Row(i))
}

// B returns both directions: F(n) followed by T(n).
func (e *EdgeFeature) B(n core.NodeID) []core.NodeID {
	return append(e.F(n), e.T(n)...)
}

// Get returns the edge value for (source, dest) if the feature carries
// values and the edge exists, else absent.
func (e *EdgeFeature) Get(source, dest core.NodeID) model.Value {
	if e.fwd.ExtraValues == nil {
		return model.Absent
	}
	i := int(source) - 1
	if i < 0 || i >= e.fwd.NumRows() {
		return model.Absent
	}
	lo, hi := e.fwd.Offsets[i], e.fwd.Offsets[i+1]
	for off := lo; off < hi; off++ {
		if core.NodeID(e.fwd.Values[off]) == dest {
			return model.Int(int64(e.fwd.ExtraValues[off]))
		}
	}
	return model.Absent
}

func (e *EdgeFeature) ensureInverse() {
	e.invOnce.Do(func() {
		e.inv = invertCSR(e.fwd)
	})
}

// invertCSR builds dest→sources from a source→destinations CSR, dropping
// any destination id that falls outside the row range (out-of-bounds
// edges are silently skipped per spec §7).
func invertCSR(fwd cfm.CSR) cfm.CSR {
	n := fwd.NumRows()
	counts := make([]uint32, n+1)
	for _, dst := range fwd.Values {
		d := int(dst) - 1
		if d < 0 || d >= n {
			continue
		}
		counts[d+1]++
	}
	offsets := make([]uint32, n+1)
	for i := 1; i <= n; i++ {
		offsets[i] = offsets[i-1] + counts[i]
	}
	values := make([]uint32, offsets[n])
	cursor := append([]uint32(nil), offsets...)
	for src := 0; src < n; src++ {
		for off := fwd.Offsets[src]; off < fwd.Offsets[src+1]; off++ {
			dst := fwd.Values[off]
			d := int(dst) - 1
			if d < 0 || d >= n {
				continue
			}
			values[cursor[d]] = uint32(src + 1)
			cursor[d]++
		}
	}
	// Within each destination's row, sort sources by ascending node id,
	// not insertion order.
	for i := 0; i < n; i++ {
		row := values[offsets[i]:offsets[i+1]]
		sort.Slice(row, func(a, b int) bool { return row[a] < row[b] })
	}
	return cfm.CSR{Offsets: offsets, Values: values}
}

func toNodeIDs(vs []uint32) []core.NodeID {
	out := make([]core.NodeID, len(vs))
	for i, v := range vs {
		out[i] = core.NodeID(v)
	}
	return out
}
