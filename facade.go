package fabric

import (
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/nav"
)

// Api is the bundle of stateless operators spec §6 calls `Api.N/L/T/F/E/S`,
// returned from Fabric.Load bound to the features that call requested.
// Each operator holds only shared read-only references (N and L the
// *cfm.Store, T the store and the feature registry, S the *Fabric), so
// copying an Api is cheap and safe to share across goroutines.
type Api struct {
	N nav.N
	L nav.L
	T *nav.T
	S S

	fab *Fabric
}

func newAPI(f *Fabric) *Api {
	return &Api{
		N:   nav.N{Store: f.store},
		L:   nav.L{Store: f.store},
		T:   nav.NewT(f.store, f.features),
		S:   S{fab: f},
		fab: f,
	}
}

// F resolves name to its feature handle (spec §6 `Api.F[name]`), loading
// it on first access if it was not requested at Load time. Name-kind
// mismatches (e.g. looking up an edge feature's name via F and expecting
// .Int) surface as a nil field on the returned Handle, not an error.
func (a *Api) F(name string) (feature.Handle, error) {
	return a.fab.features.Load(name)
}

// E resolves name to its edge feature handle (spec §6 `Api.E[name]`). It
// is the same registry as F; the separate name only mirrors the source
// API's separate node/edge feature namespaces.
func (a *Api) E(name string) (feature.Handle, error) {
	return a.fab.features.Load(name)
}
