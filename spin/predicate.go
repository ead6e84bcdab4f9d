package spin

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/ferr"
	"github.com/context-fabric/fabric/model"
)

// parseAtom parses one atom line's tokens (type name already stripped of
// any leading relation operator) into an Atom with its predicates, but
// not yet its structural fields.
func parseAtom(tokens []string, lineNo, col int) (*Atom, error) {
	typeName := tokens[0]
	a := &Atom{TypeName: typeName, AnyType: typeName == "."}

	for _, tok := range tokens[1:] {
		pred, err := parsePredicate(tok, lineNo, col)
		if err != nil {
			return nil, err
		}
		a.Predicates = append(a.Predicates, pred)
	}
	return a, nil
}

func parsePredicate(tok string, lineNo, col int) (Predicate, error) {
	switch {
	case strings.HasSuffix(tok, "*"):
		return Predicate{Feature: tok[:len(tok)-1], Op: PredPresent}, nil
	case strings.HasSuffix(tok, "?"):
		return Predicate{Feature: tok[:len(tok)-1], Op: PredAbsent}, nil
	case strings.Contains(tok, "!="):
		parts := strings.SplitN(tok, "!=", 2)
		return Predicate{Feature: parts[0], Op: PredNE, Values: []string{parts[1]}}, nil
	case strings.Contains(tok, "~"):
		parts := strings.SplitN(tok, "~", 2)
		if _, err := regexp.Compile(parts[1]); err != nil {
			return Predicate{}, &ferr.TemplateParseError{Line: lineNo, Col: col,
				Expected: []string{"valid regular expression"}, Found: parts[1]}
		}
		return Predicate{Feature: parts[0], Op: PredRegex, Values: []string{parts[1]}}, nil
	case strings.Contains(tok, "="):
		parts := strings.SplitN(tok, "=", 2)
		values := strings.Split(parts[1], "|")
		if len(values) == 1 {
			return Predicate{Feature: parts[0], Op: PredEq, Values: values}, nil
		}
		return Predicate{Feature: parts[0], Op: PredIn, Values: values}, nil
	default:
		return Predicate{}, &ferr.TemplateParseError{Line: lineNo, Col: col,
			Expected: []string{"feature predicate (=, !=, ~, *, or ?)"}, Found: tok}
	}
}

// selectivity estimates the fraction of typeCount nodes this predicate
// keeps, from the feature's exact compile-time value histogram (spec
// §4.5 step 2). It never returns 0 for a predicate whose value might
// exist but wasn't seen in the histogram guess path (regex, custom):
// those are estimated at a fixed fallback since they require scalar
// evaluation and can't be read off a histogram.
func selectivity(pred Predicate, store *cfm.Store, registry *feature.Registry, typeCount int) float64 {
	if typeCount == 0 {
		return 0
	}
	switch pred.Op {
	case PredPresent, PredAbsent:
		return 0.9
	case PredRegex:
		return 0.3
	}

	h, err := registry.Load(pred.Feature)
	if err != nil {
		return 1
	}

	var hit int
	switch {
	case h.Int != nil:
		freq := h.Int.FreqList()
		for _, v := range pred.Values {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				hit += freq[n]
			}
		}
	case h.String != nil:
		freq := h.String.FreqList()
		for _, v := range pred.Values {
			hit += freq[v]
		}
	default:
		return 1
	}

	sel := float64(hit) / float64(typeCount)
	if pred.Op == PredNE {
		sel = 1 - sel
	}
	if sel <= 0 {
		return 1.0 / float64(typeCount+1) // never claim zero; a miss should cost, not short-circuit the planner
	}
	return sel
}

// evalPredicate checks a single predicate against a bound node's value;
// materialization uses it as the scalar fallback for regex predicates.
func evalPredicate(pred Predicate, h feature.Handle) (func(v model.Value) bool, error) {
	switch pred.Op {
	case PredPresent:
		return func(v model.Value) bool { return !v.IsAbsent() }, nil
	case PredAbsent:
		return func(v model.Value) bool { return v.IsAbsent() }, nil
	case PredRegex:
		re, err := regexp.Compile(pred.Values[0])
		if err != nil {
			return nil, err
		}
		return func(v model.Value) bool { return !v.IsAbsent() && re.MatchString(v.String()) }, nil
	case PredEq:
		want := pred.Values[0]
		return func(v model.Value) bool { return !v.IsAbsent() && v.String() == want }, nil
	case PredNE:
		want := pred.Values[0]
		return func(v model.Value) bool { return !v.IsAbsent() && v.String() != want }, nil
	case PredIn:
		set := make(map[string]struct{}, len(pred.Values))
		for _, v := range pred.Values {
			set[v] = struct{}{}
		}
		return func(v model.Value) bool {
			if v.IsAbsent() {
				return false
			}
			_, ok := set[v.String()]
			return ok
		}, nil
	default:
		return nil, &ferr.UnknownName{Kind: "predicate", Name: pred.Feature}
	}
}
