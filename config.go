package fabric

import (
	"os"
	"time"

	"github.com/context-fabric/fabric/logging"
	"github.com/context-fabric/fabric/metrics"
)

// Config holds the immutable settings threaded into every component a
// Fabric builds at Open time (SPEC_FULL §9.1: "Config built once from
// environment, applied over functional options").
type Config struct {
	// EmbeddingCache, when true, makes Open eagerly load every catalog
	// feature through the registry instead of relying on publish-once
	// lazy loads. It does not preload the levUp/levDown arrays: Open
	// never calls warp.Preload, so they stay as cfm.Open mapped them.
	// Defaults from CF_EMBEDDING_CACHE (on|off), false otherwise.
	EmbeddingCache bool

	// CacheDir is a local cache directory a caller can hand to
	// remotestore.Fetch. Open does not read it and does not resolve
	// relative paths against it. Defaults from CF_CACHE_DIR, the OS
	// user-cache directory otherwise.
	CacheDir string

	// CancelBudget bounds wall-clock time spent inside one Search call,
	// independent of any context deadline the caller supplies. Zero
	// means no additional bound.
	CancelBudget time.Duration

	// MaxBackgroundWorkers bounds the resource.Controller a Fabric
	// builds for itself; 0 defaults to 1 inside resource.Controller.
	MaxBackgroundWorkers int64

	Logger  *logging.Logger
	Metrics metrics.Collector
}

func defaultConfig() Config {
	cfg := Config{
		EmbeddingCache: os.Getenv("CF_EMBEDDING_CACHE") == "on",
		CacheDir:       envCacheDir(),
		Logger:         logging.Noop(),
		Metrics:        metrics.NoopCollector{},
	}
	return cfg
}

func envCacheDir() string {
	if v := os.Getenv("CF_CACHE_DIR"); v != "" {
		return v
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/context-fabric"
	}
	return os.TempDir()
}
