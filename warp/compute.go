package warp

import (
	"context"

	"github.com/context-fabric/fabric/cfm"
)

// Index is the full set of precomputed warps for one store, produced by
// Compute and written out via cfm.Writer.
type Index struct {
	Boundary cfm.Boundary
	Order    cfm.DenseUint32
	Rank     cfm.DenseUint32
	Levels   []cfm.LevelRange
	LevUp    cfm.CSR
	LevDown  cfm.CSR
}

// Compute runs every step of spec §4.3 in leaves-first order: boundary,
// then order/rank (which levUp and levDown depend on), then levels,
// then levUp/levDown.
func Compute(ctx context.Context, meta *cfm.Meta, otype cfm.DenseInt32, oslots cfm.CSR) (*Index, error) {
	nodeCount, slotCount := int(meta.NodeCount), int(meta.SlotCount)

	boundary := ComputeBoundary(oslots, nodeCount, slotCount)
	order, rank := ComputeOrder(otype, oslots, meta.Types, nodeCount, slotCount)
	levels := ComputeLevels(otype, meta.Types, nodeCount)

	levUp, err := ComputeLevUp(ctx, otype, oslots, boundary, rank, meta.Types, nodeCount, slotCount)
	if err != nil {
		return nil, err
	}
	levDown := ComputeLevDown(levUp, rank, nodeCount)

	return &Index{
		Boundary: boundary,
		Order:    order,
		Rank:     rank,
		Levels:   levels,
		LevUp:    levUp,
		LevDown:  levDown,
	}, nil
}
