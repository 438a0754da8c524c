package timemodel

import (
	"testing"
	"time"

	"github.com/ChuLiYu/llrt/internal/job"
	"github.com/stretchr/testify/assert"
)

func TestDeterministicEstimateIgnoresTrackedObservations(t *testing.T) {
	tr := New(true)
	opType := job.OpTypeID("decay")

	before := tr.EstimateTimeOp(opType, 100)
	tr.TrackOp(opType, time.Second, 100)
	after := tr.EstimateTimeOp(opType, 100)

	assert.Equal(t, before, after, "deterministic mode must ignore observed timings")
	assert.Equal(t, 100*time.Microsecond, before)
}

func TestAdaptiveEstimateRefinesFromObservations(t *testing.T) {
	tr := New(false)
	opType := job.OpTypeID("activate")
	tr.EnsureTracked(opType)

	// 1000 ops took 10ms. totalOps starts at 1, so the tracker now holds
	// 10ms over 1001 ops -> 10000/1001 us/op, and 1000 ops estimate to
	// 9.990009ms after truncation to whole nanoseconds.
	tr.TrackOp(opType, 10*time.Millisecond, 1000)
	assert.Equal(t, 9990009*time.Nanosecond, tr.EstimateTimeOp(opType, 1000))
}

func TestEnsureTrackedIsIdempotent(t *testing.T) {
	tr := New(false)
	opType := job.OpTypeID("inject")

	tr.EnsureTracked(opType)
	first := tr.EstimateTimeOp(opType, 10)
	tr.EnsureTracked(opType)
	second := tr.EstimateTimeOp(opType, 10)

	assert.Equal(t, first, second, "re-registering a known OpTypeID must not reset its estimate")
}

func TestEstimateOpsFromTimeRoundTrips(t *testing.T) {
	tr := New(false)
	opType := job.OpTypeID("accumulate")
	tr.TrackOp(opType, 100*time.Microsecond, 100)

	// totalOps starts at 1, so the tracker holds 100us over 101 ops and
	// 100us converts back to 101 ops.
	ops := tr.EstimateOpsFromTime(opType, 100*time.Microsecond)
	assert.Equal(t, int64(101), ops)
}

func TestEstimateOpsFromTimeFloorsAtOne(t *testing.T) {
	tr := New(false)
	opType := job.OpTypeID("unknown")

	// spec.md's estimate_ops formula is max(1, time_µs / t_per_op): a
	// negative or vanishingly small duration must floor at 1, never 0.
	assert.Equal(t, int64(1), tr.EstimateOpsFromTime(opType, -time.Second))
	assert.Equal(t, int64(1), tr.EstimateOpsFromTime(opType, time.Nanosecond))
}

func TestEstimateOpsFromTimeDeterministicMode(t *testing.T) {
	tr := New(true)
	opType := job.OpTypeID("decay")

	ops := tr.EstimateOpsFromTime(opType, 50*time.Microsecond)
	assert.Equal(t, int64(50), ops)
}

func TestUnknownOpTypeDefaultsToOneMicrosecondPerOp(t *testing.T) {
	tr := New(false)
	opType := job.OpTypeID("never-seen")

	assert.Equal(t, 10*time.Microsecond, tr.EstimateTimeOp(opType, 10))
}
