package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ChuLiYu/llrt/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkAdvanceRunsWithoutPanicking(t *testing.T) {
	sched := scheduler.New(scheduler.Config{
		Workers:               3,
		Deterministic:         true,
		SingleThreadThreshold: time.Microsecond,
	})
	require.NoError(t, sched.Start())
	defer sched.Stop()

	net := newIFNetwork(20, 1)
	net.initWeights(sched)

	rng := rand.New(rand.NewSource(1))
	inputs := make([]float32, 20)

	assert.NotPanics(t, func() {
		for ts := int64(0); ts < 5; ts++ {
			for i := range inputs {
				inputs[i] = float32(rng.NormFloat64())
			}
			net.advance(sched, ts, inputs)
		}
	})
}

func TestInitWeightsRandomizesDendrites(t *testing.T) {
	sched := scheduler.New(scheduler.Config{Workers: 2})
	require.NoError(t, sched.Start())
	defer sched.Stop()

	net := newIFNetwork(10, 7)
	net.initWeights(sched)

	var nonZero int
	for _, d := range net.dendrites {
		if d.W != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 0, "expected at least some dendrite weights to be randomized")
}
