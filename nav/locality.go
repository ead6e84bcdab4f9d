package nav

import (
	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/ferr"
)

// L is the locality operator: embedders (U), embeddees (D), and
// canonical-order adjacents (P, N) at a fixed type.
type L struct {
	Store *cfm.Store
}

// U returns levUp(n), optionally restricted to the named type.
func (l L) U(n core.NodeID, typeName string) ([]core.NodeID, error) {
	return l.filtered(l.Store.LevUp, n, typeName)
}

// D returns levDown(n), optionally restricted to the named type.
func (l L) D(n core.NodeID, typeName string) ([]core.NodeID, error) {
	return l.filtered(l.Store.LevDown, n, typeName)
}

func (l L) filtered(csr cfm.CSR, n core.NodeID, typeName string) ([]core.NodeID, error) {
	i := int(n) - 1
	if i < 0 || i >= csr.NumRows() {
		return nil, nil
	}
	row := csr.Row(i)
	if typeName == "" {
		out := make([]core.NodeID, len(row))
		for j, v := range row {
			out[j] = core.NodeID(v)
		}
		return out, nil
	}
	td, ok := l.Store.Meta.TypeByName(typeName)
	if !ok {
		return nil, &ferr.UnknownType{Name: typeName}
	}
	var out []core.NodeID
	for _, v := range row {
		if int(l.Store.OType.Values[v-1]) == td.ID {
			out = append(out, core.NodeID(v))
		}
	}
	return out, nil
}

// P returns the previous node before n in canonical order that shares n's
// type, or core.NoNode if n is first of its type.
func (l L) P(n core.NodeID) core.NodeID {
	return l.adjacent(n, -1)
}

// N returns the next node after n in canonical order that shares n's
// type, or core.NoNode if n is last of its type.
func (l L) N(n core.NodeID) core.NodeID {
	return l.adjacent(n, 1)
}

func (l L) adjacent(n core.NodeID, step int) core.NodeID {
	if int(n) < 1 || int(n) > len(l.Store.OType.Values) {
		return core.NoNode
	}
	t := l.Store.OType.Values[n-1]
	pos := int(l.Store.Rank.Values[n-1]) - 1
	order := l.Store.Order.Values
	for i := pos + step; i >= 0 && i < len(order); i += step {
		m := order[i]
		if l.Store.OType.Values[m-1] == t {
			return core.NodeID(m)
		}
	}
	return core.NoNode
}
