package metrics_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/harvest/internal/metrics"
)

func TestNewMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	assert.NotNil(t, m)
	assert.False(t, m.StartTime.IsZero())
	assert.Equal(t, metrics.Snapshot{}, m.Get())
}

func TestCounters(t *testing.T) {
	m := metrics.NewMetrics()

	m.IncRequest()
	m.IncRequest()
	m.IncStoredNew()
	m.IncStoredUpdated()
	m.IncUnchanged()
	m.IncSkipped()
	m.IncFiltered()
	m.IncFailed()
	m.IncSitemapError()

	snap := m.Get()
	assert.Equal(t, int64(2), snap.Requests)
	assert.Equal(t, int64(1), snap.StoredNew)
	assert.Equal(t, int64(1), snap.StoredUpdated)
	assert.Equal(t, int64(1), snap.Unchanged)
	assert.Equal(t, int64(1), snap.Skipped)
	assert.Equal(t, int64(1), snap.Filtered)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1), snap.SitemapErrors)
}

func TestReset(t *testing.T) {
	m := metrics.NewMetrics()
	m.IncRequest()
	m.IncStoredNew()
	m.IncSitemapError()

	m.Reset()

	assert.Equal(t, metrics.Snapshot{}, m.Get())
	assert.False(t, m.StartTime.IsZero())
}

func TestConcurrentIncrements(t *testing.T) {
	m := metrics.NewMetrics()

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				m.IncRequest()
				m.IncStoredNew()
			}
		}()
	}
	wg.Wait()

	snap := m.Get()
	assert.Equal(t, int64(workers*perWorker), snap.Requests)
	assert.Equal(t, int64(workers*perWorker), snap.StoredNew)
}
