package spin

import "github.com/context-fabric/fabric/core"

// ReturnType selects what Search materializes, per spec §4.5's
// "Execution semantics": every variant plans and joins identically, only
// the tail of the pipeline differs.
type ReturnType int

const (
	ReturnResults ReturnType = iota
	ReturnCount
	ReturnStatistics
	ReturnPassages
)

// Tuple is one match: one node id per atom, in template declaration
// order (not spin order).
type Tuple []core.NodeID

// Histogram is one feature's value→count breakdown over a matched set.
type Histogram struct {
	Feature string
	Counts  map[string]int64
	Total   int64
}

// Result is what Search returns, shaped by the requested ReturnType.
// Only the fields relevant to that type are populated.
type Result struct {
	ReturnType ReturnType

	Tuples  []Tuple // ReturnResults
	HasMore bool

	Count int64 // ReturnResults and ReturnCount both fill this in

	Statistics []Histogram // ReturnStatistics

	Passages []string // ReturnPassages
}
