// Package feature implements the two feature backends of spec §4.2
// (int-valued and string-valued node features) plus edge features, their
// shared bulk-filter contract, and the candidate-set type SPIN's planner
// and executor pass between relation joins.
package feature

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/context-fabric/fabric/core"
)

// NodeSet is a sorted set of node ids backed by a Roaring bitmap. It is
// the candidate-set currency of the planner/executor: cheap to intersect,
// union, and iterate in ascending order.
type NodeSet struct {
	rb *roaring.Bitmap
}

// NewNodeSet returns an empty set.
func NewNodeSet() *NodeSet {
	return &NodeSet{rb: roaring.New()}
}

// NodeSetFromSlice builds a set from an unordered slice of node ids.
func NodeSetFromSlice(ids []core.NodeID) *NodeSet {
	rb := roaring.New()
	buf := make([]uint32, len(ids))
	for i, n := range ids {
		buf[i] = uint32(n)
	}
	rb.AddMany(buf)
	return &NodeSet{rb: rb}
}

// NodeSetRange builds the set {lo, lo+1, ..., hi} inclusive.
func NodeSetRange(lo, hi core.NodeID) *NodeSet {
	rb := roaring.New()
	if hi >= lo {
		rb.AddRange(uint64(lo), uint64(hi)+1)
	}
	return &NodeSet{rb: rb}
}

func (s *NodeSet) Add(n core.NodeID) { s.rb.Add(uint32(n)) }

func (s *NodeSet) Contains(n core.NodeID) bool { return s.rb.Contains(uint32(n)) }

func (s *NodeSet) Cardinality() int { return int(s.rb.GetCardinality()) }

func (s *NodeSet) IsEmpty() bool { return s.rb.IsEmpty() }

// Clone returns a deep, independent copy.
func (s *NodeSet) Clone() *NodeSet { return &NodeSet{rb: s.rb.Clone()} }

// And intersects in place with other.
func (s *NodeSet) And(other *NodeSet) { s.rb.And(other.rb) }

// Or unions in place with other.
func (s *NodeSet) Or(other *NodeSet) { s.rb.Or(other.rb) }

// AndNot removes other's members from s in place.
func (s *NodeSet) AndNot(other *NodeSet) { s.rb.AndNot(other.rb) }

// Nodes yields the set's members in ascending order.
func (s *NodeSet) Nodes() iter.Seq[core.NodeID] {
	return func(yield func(core.NodeID) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(core.NodeID(it.Next())) {
				return
			}
		}
	}
}

// ToSlice materializes the set's members in ascending order.
func (s *NodeSet) ToSlice() []core.NodeID {
	out := make([]core.NodeID, 0, s.Cardinality())
	for n := range s.Nodes() {
		out = append(out, n)
	}
	return out
}
