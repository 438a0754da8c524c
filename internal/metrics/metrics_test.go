package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector := NewCollector()

	assert.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.barriersPlanned, "barriersPlanned counter should be initialized")
	assert.NotNil(t, collector.barriersFinalized, "barriersFinalized counter should be initialized")
	assert.NotNil(t, collector.chunksDispatched, "chunksDispatched counter should be initialized")
	assert.NotNil(t, collector.chunkDuration, "chunkDuration histogram should be initialized")
	assert.NotNil(t, collector.barriersPending, "barriersPending gauge should be initialized")
	assert.NotNil(t, collector.workersBusy, "workersBusy gauge should be initialized")
}

func TestIncBarriersPlanned(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.IncBarriersPlanned()
	}, "IncBarriersPlanned should not panic")

	for i := 0; i < 5; i++ {
		collector.IncBarriersPlanned()
	}
}

func TestIncBarriersFinalized(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.IncBarriersPlanned()
		collector.IncBarriersFinalized()
	}, "IncBarriersFinalized should not panic")
}

func TestIncChunksDispatched(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.IncChunksDispatched()
	}, "IncChunksDispatched should not panic")

	for i := 0; i < 10; i++ {
		collector.IncChunksDispatched()
	}
}

func TestObserveChunkDuration(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	durations := []float64{0.0001, 0.001, 0.01, 0.1, 1.0}

	for _, d := range durations {
		assert.NotPanics(t, func() {
			collector.ObserveChunkDuration(d)
		}, "ObserveChunkDuration should not panic with duration %f", d)
	}
}

func TestSetWorkersBusy(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	testCases := []struct {
		name string
		busy int
	}{
		{"zero busy", 0},
		{"some busy", 4},
		{"all busy", 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				collector.SetWorkersBusy(tc.busy)
			}, "SetWorkersBusy should not panic")
		})
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	done := make(chan bool, 100)

	for i := 0; i < 100; i++ {
		go func() {
			collector.IncBarriersPlanned()
			collector.IncChunksDispatched()
			collector.ObserveChunkDuration(0.01)
			collector.SetWorkersBusy(4)
			collector.IncBarriersFinalized()
			done <- true
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}
}

func TestCollectorIsolation(t *testing.T) {
	// Test that a second collector cannot share a registry with the first
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector1 := NewCollector()
	require.NotNil(t, collector1)

	// Second collector will panic due to duplicate registration
	// This is expected: a process should have only one collector
	assert.Panics(t, func() {
		NewCollector()
	}, "Creating a second collector should panic due to duplicate registration")
}

func TestMetricOperationSequence(t *testing.T) {
	// Test a typical barrier lifecycle
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.IncBarriersPlanned()
		collector.SetWorkersBusy(1)

		collector.IncChunksDispatched()
		collector.ObserveChunkDuration(0.002)
		collector.SetWorkersBusy(0)

		collector.IncBarriersFinalized()
	}, "Complete barrier lifecycle should not panic")
}

func TestZeroValues(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.ObserveChunkDuration(0.0)
		collector.SetWorkersBusy(0)
	}, "Edge case values should not panic")
}
