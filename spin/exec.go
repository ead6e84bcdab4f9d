package spin

import (
	"context"
	"errors"
	"time"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/ferr"
)

// TextRenderer is the subset of nav.T that Executor needs for
// return_type=passages, kept as an interface so spin does not depend on
// nav (nav depends on cfm and feature only; spin stays a peer, not a
// consumer, to avoid a needless import edge).
type TextRenderer interface {
	Text(n core.NodeID, format string) (string, error)
}

// SearchOptions configures one Search call. All variants share one plan;
// these fields only affect what the tail of the pipeline keeps.
type SearchOptions struct {
	ReturnType ReturnType

	// AggregateFeatures and TopN apply to ReturnStatistics: histograms
	// are built over these feature names, across every node bound by the
	// matched tuples, keeping each histogram's TopN most frequent values
	// (0 means keep all).
	AggregateFeatures []string
	TopN              int

	// Format and Renderer apply to ReturnPassages: text is rendered for
	// each tuple's first (template-order) atom binding, the template's
	// designated "principal" node.
	Format   string
	Renderer TextRenderer

	// Limit and Offset page through ReturnResults; Limit 0 means
	// unbounded.
	Limit  int
	Offset int

	// Timeout bounds wall-clock time spent joining, independent of any
	// context deadline on the call. Zero means no additional bound.
	Timeout time.Duration
}

// errStop is an internal sentinel unwound by Search once enough tuples
// have been collected; it never escapes Search itself.
var errStop = errors.New("spin: search satisfied")

// Executor runs SPIN plans against one compiled store. It holds no state
// across calls besides the store/registry it was built with; a fresh
// Executor is cheap, but candidate sets are cached per call since the
// same atom can recur across a template and its quantifier bodies.
type Executor struct {
	store    *cfm.Store
	registry *feature.Registry
}

func NewExecutor(store *cfm.Store, registry *feature.Registry) *Executor {
	return &Executor{store: store, registry: registry}
}

// run tracks per-call state: the candidate cache (keyed by atom ID,
// globally unique across a template and every quantifier body nested in
// it), and the cancellation budget.
type run struct {
	exec      *Executor
	ctx       context.Context
	start     time.Time
	deadline  time.Time
	hasBudget bool
	checked   int64
	cache     map[int]*feature.NodeSet
	planCache map[*Quantifier]*Plan
}

func (e *Executor) newRun(ctx context.Context, timeout time.Duration) *run {
	r := &run{exec: e, ctx: ctx, start: time.Now(), cache: make(map[int]*feature.NodeSet), planCache: make(map[*Quantifier]*Plan)}
	if timeout > 0 {
		r.deadline = r.start.Add(timeout)
		r.hasBudget = true
	}
	return r
}

// checkCancel is consulted every candidate, per spec §5's "checks it at
// chunk boundaries and at every candidate batch of size ≥ 1024" — the
// counter amortizes the time.Now()/ctx.Err() cost over 1024 candidates
// rather than paying it per node.
func (r *run) checkCancel() error {
	r.checked++
	if r.checked&1023 != 0 {
		return nil
	}
	if err := r.ctx.Err(); err != nil {
		return &ferr.Cancelled{}
	}
	if r.hasBudget && time.Now().After(r.deadline) {
		return &ferr.Timeout{ElapsedMS: time.Since(r.start).Milliseconds()}
	}
	return nil
}

func (r *run) candidatesFor(atom *Atom) (*feature.NodeSet, error) {
	if cs, ok := r.cache[atom.ID]; ok {
		return cs, nil
	}
	cs, err := materializeAtom(atom, r.exec.store, r.exec.registry)
	if err != nil {
		return nil, err
	}
	r.cache[atom.ID] = cs
	return cs, nil
}

type binding map[int]core.NodeID

// restrict narrows atom's base candidate set by every edge that connects
// it to an atom already present in bound, per spec §4.5 step 5.
// restrictByRelation always reads "bound rel other"; when atomID is the
// declared left-hand side of the edge and the right-hand side is what's
// bound, the relation is inverted first so the same call always means
// "the already-bound node, related to atomID's candidates".
func (r *run) restrict(atomID int, base *feature.NodeSet, bound binding, edges []edge, atom *Atom) *feature.NodeSet {
	cur := base
	otherType := typeIDOf(atom, r.exec.store)
	for _, e := range edges {
		switch {
		case e.a == atomID:
			if boundB, ok := bound[e.b]; ok {
				cur = restrictByRelation(invertRel[e.rel], boundB, otherType, cur, r.exec.store)
			}
		case e.b == atomID:
			if boundA, ok := bound[e.a]; ok {
				cur = restrictByRelation(e.rel, boundA, otherType, cur, r.exec.store)
			}
		}
		if cur.IsEmpty() {
			break
		}
	}
	return cur
}

func typeIDOf(atom *Atom, store *cfm.Store) int {
	if atom.AnyType {
		return -1
	}
	td, ok := store.Meta.TypeByName(atom.TypeName)
	if !ok {
		return -1
	}
	return td.ID
}

// join enumerates every full binding consistent with plan, in plan order,
// calling emit once per binding. Because a single fixed spin order is a
// plain depth-first enumeration of consistent assignments — each tree
// node is one partial assignment, reached by exactly one path — every
// full binding is visited at most once; no explicit dedup set is needed
// (spec §4.5 "the result set is deduplicated... at most once" holds by
// construction of this join strategy, not by extra bookkeeping).
// emit returns (stop, error); stop ends the enumeration early without
// being treated as a failure.
func (r *run) join(plan *Plan, extraBound binding, emit func(binding) (bool, error)) error {
	bound := make(binding, len(plan.Template.Atoms)+len(extraBound))
	for k, v := range extraBound {
		bound[k] = v
	}
	err := r.bindNext(plan, 0, bound, emit)
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func (r *run) bindNext(plan *Plan, pos int, bound binding, emit func(binding) (bool, error)) error {
	if pos == len(plan.Order) {
		stop, err := emit(bound)
		if err != nil {
			return err
		}
		if stop {
			return errStop
		}
		return nil
	}

	atomID := plan.Order[pos]
	atom := plan.Template.Atom(atomID)

	base, err := r.candidatesFor(atom)
	if err != nil {
		return err
	}
	restricted := r.restrict(atomID, base, bound, plan.Edges, atom)

	for n := range restricted.Nodes() {
		if err := r.checkCancel(); err != nil {
			return err
		}
		bound[atomID] = n

		ok, err := r.quantifiersHold(atom, n)
		if err != nil {
			delete(bound, atomID)
			return err
		}
		if ok {
			if err := r.bindNext(plan, pos+1, bound, emit); err != nil {
				delete(bound, atomID)
				return err
			}
		}
	}
	delete(bound, atomID)
	return nil
}

// quantifiersHold evaluates every quantifier attached to atom against
// host, the node just bound to it. Quantifiers are grouped into
// /or/-chains (a quantifier with OrWithPrev joins the group started by
// the one before it); a group holds if any member holds, and the atom's
// binding survives only if every group holds.
func (r *run) quantifiersHold(atom *Atom, host core.NodeID) (bool, error) {
	if len(atom.Quantifiers) == 0 {
		return true, nil
	}
	for _, group := range groupQuantifiers(atom.Quantifiers) {
		groupHolds := false
		for _, q := range group {
			holds, err := r.quantifierHolds(q, host)
			if err != nil {
				return false, err
			}
			if holds {
				groupHolds = true
				break
			}
		}
		if !groupHolds {
			return false, nil
		}
	}
	return true, nil
}

func groupQuantifiers(qs []*Quantifier) [][]*Quantifier {
	var groups [][]*Quantifier
	for _, q := range qs {
		if q.OrWithPrev && len(groups) > 0 {
			groups[len(groups)-1] = append(groups[len(groups)-1], q)
		} else {
			groups = append(groups, []*Quantifier{q})
		}
	}
	return groups
}

// quantifierHolds implements spec §4.5's quantifier semantics: after the
// host binding is fixed, the body is evaluated with that binding pinned
// (compiled here into its own Plan, "nested SPIN with the binding
// pinned" per §9). "where"/"have"/"with" require at least one witness;
// "without" requires none.
func (r *run) quantifierHolds(q *Quantifier, host core.NodeID) (bool, error) {
	plan, ok := r.planCache[q]
	var err error
	if !ok {
		plan, err = BuildPlan(q.Body, r.exec.store, r.exec.registry)
		if err != nil {
			return false, err
		}
		r.planCache[q] = plan
	}
	found := false
	err = r.join(plan, binding{q.HostAtomID: host}, func(binding) (bool, error) {
		found = true
		return true, nil // one witness is enough
	})
	if err != nil {
		return false, err
	}
	if q.Keyword == "without" {
		return !found, nil
	}
	return found, nil
}

// Search runs tmpl against the executor's store per spec §4.5/§6
// (Api.S.search): plan once, join in spin order, then shape the result
// according to opts.ReturnType. A plan that cannot bind any atom yields
// an empty, non-error Result.
func (e *Executor) Search(ctx context.Context, tmpl *Template, opts SearchOptions) (*Result, error) {
	for _, a := range tmpl.Atoms {
		if !a.AnyType {
			if _, ok := e.store.Meta.TypeByName(a.TypeName); !ok {
				return nil, &ferr.UnknownName{Kind: "type", Name: a.TypeName}
			}
		}
		for _, pred := range a.Predicates {
			if _, ok := e.store.Meta.FeatureByName(pred.Feature); !ok {
				return nil, &ferr.UnknownName{Kind: "feature", Name: pred.Feature}
			}
		}
	}

	plan, err := BuildPlan(tmpl, e.store, e.registry)
	if err != nil {
		return nil, err
	}
	r := e.newRun(ctx, opts.Timeout)

	switch opts.ReturnType {
	case ReturnCount:
		return e.searchCount(r, plan)
	case ReturnStatistics:
		return e.searchStatistics(r, plan, opts)
	case ReturnPassages:
		return e.searchPassages(r, plan, opts)
	default:
		return e.searchResults(r, plan, opts)
	}
}

func projectTuple(plan *Plan, bound binding) Tuple {
	tuple := make(Tuple, len(plan.Template.Atoms))
	for i, a := range plan.Template.Atoms {
		tuple[i] = bound[a.ID]
	}
	return tuple
}

func (e *Executor) searchCount(r *run, plan *Plan) (*Result, error) {
	var count int64
	err := r.join(plan, nil, func(binding) (bool, error) {
		count++
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{ReturnType: ReturnCount, Count: count}, nil
}

func (e *Executor) searchResults(r *run, plan *Plan, opts SearchOptions) (*Result, error) {
	res := &Result{ReturnType: ReturnResults}
	skipped := 0
	err := r.join(plan, nil, func(b binding) (bool, error) {
		if skipped < opts.Offset {
			skipped++
			return false, nil
		}
		if opts.Limit > 0 && len(res.Tuples) == opts.Limit {
			res.HasMore = true
			return true, nil
		}
		res.Tuples = append(res.Tuples, projectTuple(plan, b))
		res.Count++
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Executor) searchStatistics(r *run, plan *Plan, opts SearchOptions) (*Result, error) {
	handles := make(map[string]feature.Handle, len(opts.AggregateFeatures))
	counts := make(map[string]map[string]int64, len(opts.AggregateFeatures))
	for _, name := range opts.AggregateFeatures {
		h, err := e.registry.Load(name)
		if err != nil {
			return nil, err
		}
		handles[name] = h
		counts[name] = make(map[string]int64)
	}

	var total int64
	seenNode := make(map[core.NodeID]bool)
	err := r.join(plan, nil, func(b binding) (bool, error) {
		total++
		for _, n := range b {
			if seenNode[n] {
				continue
			}
			seenNode[n] = true
			for name, h := range handles {
				v := getValue(h, n)
				if !v.IsAbsent() {
					counts[name][v.String()]++
				}
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{ReturnType: ReturnStatistics, Count: total}
	for _, name := range opts.AggregateFeatures {
		res.Statistics = append(res.Statistics, topN(name, counts[name], opts.TopN))
	}
	return res, nil
}

func topN(name string, counts map[string]int64, n int) Histogram {
	h := Histogram{Feature: name, Counts: counts}
	for _, c := range counts {
		h.Total += c
	}
	if n <= 0 || len(counts) <= n {
		return h
	}
	kept := make(map[string]int64, n)
	for i := 0; i < n; i++ {
		bestVal, bestCount := "", int64(-1)
		for v, c := range counts {
			if _, taken := kept[v]; taken {
				continue
			}
			if c > bestCount {
				bestVal, bestCount = v, c
			}
		}
		if bestCount < 0 {
			break
		}
		kept[bestVal] = bestCount
	}
	h.Counts = kept
	return h
}

func (e *Executor) searchPassages(r *run, plan *Plan, opts SearchOptions) (*Result, error) {
	res := &Result{ReturnType: ReturnPassages}
	if opts.Renderer == nil || len(plan.Template.Atoms) == 0 {
		return res, nil
	}
	principal := plan.Template.Atoms[0].ID
	err := r.join(plan, nil, func(b binding) (bool, error) {
		text, err := opts.Renderer.Text(b[principal], opts.Format)
		if err != nil {
			return false, err
		}
		res.Passages = append(res.Passages, text)
		res.Count++
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
