package fabric

import (
	"time"

	"github.com/context-fabric/fabric/logging"
	"github.com/context-fabric/fabric/metrics"
)

// Option configures Open, applied over the environment-variable defaults
// of Config (SPEC_FULL §9.1).
//
// Today options primarily exist to avoid exploding Open's signature with
// every tunable. Breaking changes are expected while Context-Fabric is
// pre-release.
type Option func(*Config)

// WithEmbeddingCache overrides CF_EMBEDDING_CACHE's default for this
// Fabric: when on, Open eagerly loads every catalog feature (see
// Config.EmbeddingCache).
func WithEmbeddingCache(on bool) Option {
	return func(c *Config) {
		c.EmbeddingCache = on
	}
}

// WithCacheDir overrides CF_CACHE_DIR's default.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithCancelBudget bounds wall-clock time spent inside one Search call,
// independent of any context deadline the caller supplies. Zero disables
// the bound.
func WithCancelBudget(d time.Duration) Option {
	return func(c *Config) {
		c.CancelBudget = d
	}
}

// WithMaxBackgroundWorkers bounds the resource.Controller this Fabric
// builds for background precomputation work.
func WithMaxBackgroundWorkers(n int64) Option {
	return func(c *Config) {
		c.MaxBackgroundWorkers = n
	}
}

// WithLogger installs a structured logger. Pass nil to discard logging.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = logging.Noop()
		}
		c.Logger = l
	}
}

// WithMetricsCollector installs a metrics collector. Pass nil to disable
// metrics collection.
//
// Example with BasicCollector:
//
//	collector := &metrics.BasicCollector{}
//	fab, _ := fabric.Open(path, 0, fabric.WithMetricsCollector(collector))
//	// ... use fab ...
//	stats := collector.Snapshot()
func WithMetricsCollector(m metrics.Collector) Option {
	return func(c *Config) {
		if m == nil {
			m = metrics.NoopCollector{}
		}
		c.Metrics = m
	}
}

func applyOptions(optFns []Option) Config {
	cfg := defaultConfig()
	for _, fn := range optFns {
		if fn != nil {
			fn(&cfg)
		}
	}
	return cfg
}
