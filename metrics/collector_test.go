package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicCollectorRecordsCounts(t *testing.T) {
	c := &BasicCollector{}

	c.RecordOpen(10*time.Millisecond, nil)
	c.RecordOpen(0, errors.New("boom"))
	c.RecordSearch("results", 5*time.Millisecond, 12, nil)
	c.RecordSearch("count", 0, 0, errors.New("boom"))
	c.RecordLoad("sp", time.Millisecond, nil)
	c.RecordFetch(time.Second, nil)

	stats := c.Snapshot()
	assert.EqualValues(t, 2, stats.OpenCount)
	assert.EqualValues(t, 1, stats.OpenErrors)
	assert.EqualValues(t, 2, stats.SearchCount)
	assert.EqualValues(t, 1, stats.SearchErrors)
	assert.EqualValues(t, 12, stats.SearchMatched)
	assert.EqualValues(t, 1, stats.LoadCount)
	assert.EqualValues(t, 0, stats.LoadErrors)
	assert.EqualValues(t, 1, stats.FetchCount)
}

func TestBasicCollectorAvgNanosIgnoresZeroCount(t *testing.T) {
	c := &BasicCollector{}
	stats := c.Snapshot()
	assert.EqualValues(t, 0, stats.OpenAvgNanos)
	assert.EqualValues(t, 0, stats.SearchAvgNanos)
	assert.EqualValues(t, 0, stats.FetchAvgNanos)
}

func TestBasicCollectorAvgNanosComputed(t *testing.T) {
	c := &BasicCollector{}
	c.RecordSearch("results", 10*time.Millisecond, 1, nil)
	c.RecordSearch("results", 20*time.Millisecond, 1, nil)

	stats := c.Snapshot()
	assert.EqualValues(t, 15*time.Millisecond, time.Duration(stats.SearchAvgNanos))
}

func TestNoopCollectorDoesNotPanic(t *testing.T) {
	var c NoopCollector
	assert.NotPanics(t, func() {
		c.RecordOpen(time.Millisecond, nil)
		c.RecordLoad("sp", time.Millisecond, nil)
		c.RecordSearch("results", time.Millisecond, 1, nil)
		c.RecordFetch(time.Millisecond, nil)
	})
}
