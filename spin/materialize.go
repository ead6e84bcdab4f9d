package spin

import (
	"strconv"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/ferr"
	"github.com/context-fabric/fabric/model"
)

// typeRange returns the NodeSet of every node of the named type, from its
// contiguous levels.bin range (spec §4.5 step 4: "start from the
// contiguous type range in levels"). An AnyType atom starts from every
// node in the store.
func typeRange(atom *Atom, store *cfm.Store) (*feature.NodeSet, int, error) {
	if atom.AnyType {
		return feature.NodeSetRange(1, core.NodeID(store.Meta.NodeCount)), int(store.Meta.NodeCount), nil
	}
	td, ok := store.Meta.TypeByName(atom.TypeName)
	if !ok {
		return nil, 0, &ferr.UnknownName{Kind: "type", Name: atom.TypeName}
	}
	for _, lr := range store.Levels {
		if lr.TypeID == td.ID {
			if lr.Count == 0 {
				return feature.NewNodeSet(), 0, nil
			}
			return feature.NodeSetRange(core.NodeID(lr.MinNode), core.NodeID(lr.MaxNode)), int(lr.Count), nil
		}
	}
	return feature.NewNodeSet(), 0, nil
}

// materializeAtom computes atom's initial candidate set: the type range
// narrowed by each of its feature predicates, via bulk filters where
// possible and scalar evaluation (regex) otherwise (spec §4.5 step 4).
func materializeAtom(atom *Atom, store *cfm.Store, registry *feature.Registry) (*feature.NodeSet, error) {
	candidates, _, err := typeRange(atom, store)
	if err != nil {
		return nil, err
	}
	for _, pred := range atom.Predicates {
		narrowed, err := applyPredicate(pred, candidates, store, registry)
		if err != nil {
			return nil, err
		}
		candidates = narrowed
		if candidates.IsEmpty() {
			break
		}
	}
	return candidates, nil
}

func applyPredicate(pred Predicate, candidates *feature.NodeSet, store *cfm.Store, registry *feature.Registry) (*feature.NodeSet, error) {
	if _, ok := store.Meta.FeatureByName(pred.Feature); !ok {
		return nil, &ferr.UnknownName{Kind: "feature", Name: pred.Feature}
	}
	h, err := registry.Load(pred.Feature)
	if err != nil {
		return nil, err
	}

	switch pred.Op {
	case PredPresent:
		if h.Int != nil {
			return h.Int.FilterPresent(candidates), nil
		}
		return h.String.FilterPresent(candidates), nil
	case PredAbsent:
		if h.Int != nil {
			return h.Int.FilterAbsent(candidates), nil
		}
		return h.String.FilterAbsent(candidates), nil
	case PredEq, PredIn, PredNE:
		return applyValuePredicate(pred, h, candidates)
	case PredRegex:
		return scalarFilter(pred, h, candidates)
	default:
		return nil, &ferr.UnknownName{Kind: "predicate", Name: pred.Feature}
	}
}

func applyValuePredicate(pred Predicate, h feature.Handle, candidates *feature.NodeSet) (*feature.NodeSet, error) {
	if h.Int != nil {
		vals := make([]int64, 0, len(pred.Values))
		for _, v := range pred.Values {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return feature.NewNodeSet(), nil // non-numeric literal against an int feature never matches
			}
			vals = append(vals, n)
		}
		switch pred.Op {
		case PredEq:
			return h.Int.FilterEq(candidates, vals[0]), nil
		case PredNE:
			return h.Int.FilterNE(candidates, vals[0]), nil
		default:
			return h.Int.FilterIn(candidates, vals), nil
		}
	}

	switch pred.Op {
	case PredEq:
		return h.String.FilterEq(candidates, pred.Values[0]), nil
	case PredNE:
		return h.String.FilterNE(candidates, pred.Values[0]), nil
	default:
		return h.String.FilterIn(candidates, pred.Values), nil
	}
}

// scalarFilter evaluates pred node-by-node over candidates, the fallback
// path spec §4.5 step 4 reserves for regex and custom predicates.
func scalarFilter(pred Predicate, h feature.Handle, candidates *feature.NodeSet) (*feature.NodeSet, error) {
	check, err := evalPredicate(pred, h)
	if err != nil {
		return nil, err
	}
	out := feature.NewNodeSet()
	for n := range candidates.Nodes() {
		if check(getValue(h, n)) {
			out.Add(n)
		}
	}
	return out, nil
}

func getValue(h feature.Handle, n core.NodeID) model.Value {
	if h.Int != nil {
		return h.Int.Get(n)
	}
	return h.String.Get(n)
}
