package fabric

import (
	"context"
	"strings"
	"time"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/resource"
	"github.com/context-fabric/fabric/spin"
	"github.com/context-fabric/fabric/spincache"
)

// Fabric is an open, read-only handle on one compiled corpus directory.
// It owns the mmap'd store and the publish-once feature registry shared
// by every Api returned from Load; a Fabric holds no other mutable
// state, per spec §5's "shared-everything read-only parallelism".
type Fabric struct {
	store    *cfm.Store
	features *feature.Registry
	executor *spin.Executor
	cache    *spincache.Cache
	resource *resource.Controller
	cfg      Config
}

// Open loads the compiled store at path/v{version} (the highest v{N}
// subdirectory present if version is 0), per spec §6's
// `open(path, version?) -> Fabric | Error`.
func Open(path string, version uint32, optFns ...Option) (*Fabric, error) {
	cfg := applyOptions(optFns)
	start := time.Now()

	store, err := cfm.Open(path, version)
	cfg.Metrics.RecordOpen(time.Since(start), err)
	if err != nil {
		cfg.Logger.LogOpen(context.Background(), path, version, time.Since(start), err)
		return nil, err
	}
	cfg.Logger.LogOpen(context.Background(), path, store.Version, time.Since(start), nil)

	registry := feature.NewRegistry(store)
	rc := resource.NewController(resource.Config{MaxBackgroundWorkers: cfg.MaxBackgroundWorkers})

	f := &Fabric{
		store:    store,
		features: registry,
		executor: spin.NewExecutor(store, registry),
		cache:    spincache.New(0, 10*time.Minute, rc),
		resource: rc,
		cfg:      cfg,
	}

	if cfg.EmbeddingCache {
		if err := registry.LoadAll(); err != nil {
			store.Close()
			return nil, err
		}
	}

	return f, nil
}

// Load materializes the requested features and returns an Api bound to
// this Fabric, per spec §6's `Fabric.load(feature_spec) -> Api`.
// featureSpec is either "all" (a single element), an explicit set of
// feature names, or no arguments at all (load nothing eagerly — every
// feature still materializes lazily on first access through the same
// publish-once registry).
func (f *Fabric) Load(featureSpec ...string) (*Api, error) {
	start := time.Now()
	var err error
	switch {
	case len(featureSpec) == 1 && featureSpec[0] == "all":
		err = f.features.LoadAll()
	case len(featureSpec) == 0:
		err = nil
	default:
		err = f.features.LoadSet(featureSpec)
	}
	f.cfg.Logger.LogLoad(context.Background(), joinNames(featureSpec), time.Since(start), err)
	f.cfg.Metrics.RecordLoad(joinNames(featureSpec), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return newAPI(f), nil
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ",")
}
