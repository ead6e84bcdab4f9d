// Package metrics defines the operational metrics surface for the
// fabric engine: an interface a caller can back with Prometheus or any
// other monitoring system, plus a dependency-free in-memory collector
// for debugging and tests.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector records operational metrics for Fabric's four externally
// observable operations. Implement this to integrate with a monitoring
// system; see BasicCollector for a usable dependency-free default.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    openHistogram   prometheus.Histogram
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSearch(returnType string, d time.Duration, matched int, err error) {
//	    p.searchHistogram.Observe(d.Seconds())
//	}
type Collector interface {
	// RecordOpen is called after Fabric.Open.
	RecordOpen(d time.Duration, err error)
	// RecordLoad is called after Fabric.Load for a single feature.
	RecordLoad(feature string, d time.Duration, err error)
	// RecordSearch is called after spin.Executor.Search. matched is the
	// returned tuple/count value appropriate to returnType, 0 on error.
	RecordSearch(returnType string, d time.Duration, matched int, err error)
	// RecordFetch is called after remotestore.Fetch.
	RecordFetch(d time.Duration, err error)
}

// NoopCollector discards every observation.
type NoopCollector struct{}

func (NoopCollector) RecordOpen(time.Duration, error)                {}
func (NoopCollector) RecordLoad(string, time.Duration, error)        {}
func (NoopCollector) RecordSearch(string, time.Duration, int, error) {}
func (NoopCollector) RecordFetch(time.Duration, error)               {}

// BasicCollector is a simple in-memory Collector, useful for debugging
// and tests without pulling in an external monitoring dependency.
type BasicCollector struct {
	OpenCount      atomic.Int64
	OpenErrors     atomic.Int64
	OpenTotalNanos atomic.Int64

	LoadCount  atomic.Int64
	LoadErrors atomic.Int64

	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	SearchMatched    atomic.Int64

	FetchCount      atomic.Int64
	FetchErrors     atomic.Int64
	FetchTotalNanos atomic.Int64
}

func (b *BasicCollector) RecordOpen(d time.Duration, err error) {
	b.OpenCount.Add(1)
	b.OpenTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

func (b *BasicCollector) RecordLoad(_ string, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

func (b *BasicCollector) RecordSearch(_ string, d time.Duration, matched int, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(d.Nanoseconds())
	b.SearchMatched.Add(int64(matched))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

func (b *BasicCollector) RecordFetch(d time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// Stats is a point-in-time snapshot of BasicCollector's counters.
type Stats struct {
	OpenCount, OpenErrors     int64
	OpenAvgNanos              int64
	LoadCount, LoadErrors     int64
	SearchCount, SearchErrors int64
	SearchAvgNanos            int64
	SearchMatched             int64
	FetchCount, FetchErrors   int64
	FetchAvgNanos             int64
}

// Snapshot returns a consistent-enough point-in-time view of the
// collector's counters (each field loaded independently; under
// concurrent writers this is a snapshot of approximately-now, not a
// transaction).
func (b *BasicCollector) Snapshot() Stats {
	return Stats{
		OpenCount:      b.OpenCount.Load(),
		OpenErrors:     b.OpenErrors.Load(),
		OpenAvgNanos:   avg(b.OpenTotalNanos.Load(), b.OpenCount.Load()),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchMatched:  b.SearchMatched.Load(),
		FetchCount:     b.FetchCount.Load(),
		FetchErrors:    b.FetchErrors.Load(),
		FetchAvgNanos:  avg(b.FetchTotalNanos.Load(), b.FetchCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
