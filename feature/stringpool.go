package feature

import (
	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/model"
)

// StringFeatureArray is the string-valued feature backend of spec §4.2: a
// dense index array into an interned StringPool, with AbsentStringIndex
// meaning "no value". The reverse value→index map is built once, lazily,
// on first lookup that needs it (S, FilterEq, FilterIn).
type StringFeatureArray struct {
	name    string
	indices []uint32
	pool    cfm.StringPool

	reverse map[string]uint32 // built on demand
}

// NewStringFeatureArray wraps a decoded index array and the pool it
// references.
func NewStringFeatureArray(name string, idx cfm.DenseUint32, pool cfm.StringPool) *StringFeatureArray {
	return &StringFeatureArray{name: name, indices: idx.Values, pool: pool}
}

func (f *StringFeatureArray) Name() string { return f.name }

// Get returns the interned string at n, or absent if out of range or
// unset.
func (f *StringFeatureArray) Get(n core.NodeID) model.Value {
	i := int(n) - 1
	if i < 0 || i >= len(f.indices) {
		return model.Absent
	}
	idx := f.indices[i]
	if idx == cfm.AbsentStringIndex {
		return model.Absent
	}
	return model.Str(f.pool.At(int(idx)))
}

// S resolves a literal value to its interned pool index. ok is false when
// the value was never interned at compile time, in which case any filter
// built from it must resolve to "never matches" rather than an error
// (spec §4.2).
func (f *StringFeatureArray) S(value string) (index uint32, ok bool) {
	f.ensureReverse()
	idx, ok := f.reverse[value]
	return idx, ok
}

func (f *StringFeatureArray) ensureReverse() {
	if f.reverse != nil {
		return
	}
	rev := make(map[string]uint32, f.pool.Len())
	for i := 0; i < f.pool.Len(); i++ {
		rev[f.pool.At(i)] = uint32(i)
	}
	f.reverse = rev
}

// FilterEq returns the subset of nodes whose value equals value. An
// unknown value yields the empty set without error.
func (f *StringFeatureArray) FilterEq(nodes *NodeSet, value string) *NodeSet {
	idx, ok := f.S(value)
	if !ok {
		return NewNodeSet()
	}
	return f.filter(nodes, func(x uint32) bool { return x == idx })
}

// FilterIn returns the subset of nodes whose value is any of values.
// Unknown values are dropped from the comparand set, not errors.
func (f *StringFeatureArray) FilterIn(nodes *NodeSet, values []string) *NodeSet {
	set := make(map[uint32]struct{}, len(values))
	for _, v := range values {
		if idx, ok := f.S(v); ok {
			set[idx] = struct{}{}
		}
	}
	return f.filter(nodes, func(x uint32) bool {
		_, ok := set[x]
		return ok
	})
}

// FilterNE returns the subset of nodes present and not equal to value.
func (f *StringFeatureArray) FilterNE(nodes *NodeSet, value string) *NodeSet {
	idx, ok := f.S(value)
	if !ok {
		return f.FilterPresent(nodes)
	}
	return f.filter(nodes, func(x uint32) bool { return x != cfm.AbsentStringIndex && x != idx })
}

// FilterPresent returns the subset of nodes that have any value.
func (f *StringFeatureArray) FilterPresent(nodes *NodeSet) *NodeSet {
	return f.filter(nodes, func(x uint32) bool { return x != cfm.AbsentStringIndex })
}

// FilterAbsent returns the subset of nodes that have no value.
func (f *StringFeatureArray) FilterAbsent(nodes *NodeSet) *NodeSet {
	return f.filter(nodes, func(x uint32) bool { return x == cfm.AbsentStringIndex })
}

func (f *StringFeatureArray) filter(nodes *NodeSet, keep func(uint32) bool) *NodeSet {
	out := NewNodeSet()
	n := len(f.indices)
	for node := range nodes.Nodes() {
		i := int(node) - 1
		if i < 0 || i >= n {
			continue
		}
		if keep(f.indices[i]) {
			out.Add(node)
		}
	}
	return out
}

// FreqList returns every distinct present value and its occurrence count.
func (f *StringFeatureArray) FreqList() map[string]int {
	counts := make(map[string]int)
	for _, idx := range f.indices {
		if idx == cfm.AbsentStringIndex {
			continue
		}
		counts[f.pool.At(int(idx))]++
	}
	return counts
}
