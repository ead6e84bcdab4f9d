package feature

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/ferr"
)

// Handle is the tagged variant over the three feature kinds, matching
// spec §9's "typed dictionary name → feature_handle" redesign of the
// source's duck-typed attribute dispatch.
type Handle struct {
	Int    *IntFeatureArray
	String *StringFeatureArray
	Edge   *EdgeFeature
}

// Registry is the publish-once concurrent map of loaded feature handles
// (spec §9: "the source caches features on first access... model this as
// a publish-once concurrent map name → shared handle"). Store.OpenFeature
// / Store.OpenEdge are only ever invoked once per name regardless of how
// many goroutines race to request it.
type Registry struct {
	store *cfm.Store

	group singleflight.Group
	mu    sync.RWMutex
	ready map[string]Handle
}

// NewRegistry returns a registry backed by an opened store. No feature is
// materialized until Load is called for it.
func NewRegistry(store *cfm.Store) *Registry {
	return &Registry{store: store, ready: make(map[string]Handle)}
}

// Load materializes the named feature if it is not already loaded,
// returning its handle. Concurrent callers requesting the same name
// block on a single load.
func (r *Registry) Load(name string) (Handle, error) {
	r.mu.RLock()
	h, ok := r.ready[name]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		// A flight for name may have finished between the check above
		// and this call; reuse its published handle instead of reopening.
		r.mu.RLock()
		h, ok := r.ready[name]
		r.mu.RUnlock()
		if ok {
			return h, nil
		}
		return r.load(name)
	})
	if err != nil {
		return Handle{}, err
	}
	return v.(Handle), nil
}

// LoadAll materializes every feature in the catalog (feature_spec "all").
func (r *Registry) LoadAll() error {
	for _, desc := range r.store.Meta.Features {
		if _, err := r.Load(desc.Name); err != nil {
			return err
		}
	}
	return nil
}

// LoadSet materializes exactly the named features (feature_spec as an
// explicit set). An empty names loads nothing, per spec §4.1's open
// question: lazy materialization still happens transparently on first
// use through Load.
func (r *Registry) LoadSet(names []string) error {
	for _, name := range names {
		if _, err := r.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// Get returns an already-materialized handle without triggering a load;
// it reports false for a name that has not been loaded yet.
func (r *Registry) Get(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.ready[name]
	return h, ok
}

func (r *Registry) load(name string) (Handle, error) {
	desc, ok := r.store.Meta.FeatureByName(name)
	if !ok {
		return Handle{}, &ferr.UnknownFeature{Name: name}
	}

	var h Handle
	switch desc.Kind {
	case cfm.FeatureNode:
		intArr, idx, pool, err := r.store.OpenFeature(desc)
		if err != nil {
			return Handle{}, err
		}
		if desc.ValueType == cfm.ValueInt {
			h = Handle{Int: NewIntFeatureArray(name, intArr)}
		} else {
			h = Handle{String: NewStringFeatureArray(name, idx, pool)}
		}
	case cfm.FeatureEdge:
		csr, err := r.store.OpenEdge(desc)
		if err != nil {
			return Handle{}, err
		}
		h = Handle{Edge: NewEdgeFeature(name, csr)}
	default:
		return Handle{}, fmt.Errorf("feature %q: unknown kind %q", name, desc.Kind)
	}

	r.mu.Lock()
	r.ready[name] = h
	r.mu.Unlock()
	return h, nil
}
