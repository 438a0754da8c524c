// Package timemodel implements the scheduler's adaptive time model: a
// per-operation-type estimate of how long a unit of progress takes,
// refined from observed execution times, used to decide how much work
// to hand a worker at a time. In deterministic mode the estimate is
// bypassed entirely so runs are reproducible regardless of machine
// speed.
package timemodel

import (
	"sync"
	"time"

	"github.com/ChuLiYu/llrt/internal/job"
)

// deterministicOpMicros is the fixed cost (in microseconds) assigned
// to one unit of progress when the Tracker is in deterministic mode.
const deterministicOpMicros = 1.0

type perfTracker struct {
	totalTime time.Duration
	totalOps  int64
	tPerOp    float64
}

// Tracker estimates, per OpTypeID, the time one unit of progress
// takes, and converts between durations and progress counts using
// that estimate. It is safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	deterministic bool
	perKernel     map[job.OpTypeID]*perfTracker
}

// New creates a Tracker. When deterministic is true, all time
// estimates are computed from a fixed per-op cost instead of observed
// timings, making scheduling decisions reproducible.
func New(deterministic bool) *Tracker {
	return &Tracker{
		deterministic: deterministic,
		perKernel:     make(map[job.OpTypeID]*perfTracker),
	}
}

// EnsureTracked registers an OpTypeID with the tracker if it isn't
// already known, so later estimate calls never need to special-case a
// missing entry.
func (t *Tracker) EnsureTracked(opType job.OpTypeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLocked(opType)
}

func (t *Tracker) ensureLocked(opType job.OpTypeID) *perfTracker {
	pt, ok := t.perKernel[opType]
	if !ok {
		pt = &perfTracker{totalOps: 1, tPerOp: 1}
		t.perKernel[opType] = pt
	}
	return pt
}

// TrackOp records that ops units of progress of the given op type took
// the given wall-clock time, refining the per-op estimate. A no-op in
// deterministic mode.
func (t *Tracker) TrackOp(opType job.OpTypeID, elapsed time.Duration, ops int64) {
	if t.deterministic {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	pt := t.ensureLocked(opType)
	pt.totalTime += elapsed
	pt.totalOps += ops
	if pt.totalOps > 0 {
		pt.tPerOp = microseconds(pt.totalTime) / float64(pt.totalOps)
	}
}

// EstimateTimeOp estimates how long ops units of progress of the
// given op type will take.
func (t *Tracker) EstimateTimeOp(opType job.OpTypeID, ops int64) time.Duration {
	if t.deterministic {
		return time.Duration(float64(ops) * deterministicOpMicros * float64(time.Microsecond))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	pt := t.ensureLocked(opType)
	return time.Duration(float64(ops) * pt.tPerOp * float64(time.Microsecond))
}

// EstimateOpsFromTime estimates how many units of progress of the
// given op type can run in the given wall-clock duration, floored at
// 1 (spec.md §4.D: estimate_ops(op_type_id, time) -> max(1, time_µs /
// t_per_op)), matching the original's `if (estSz == 0) estSz = 1;`.
func (t *Tracker) EstimateOpsFromTime(opType job.OpTypeID, d time.Duration) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var estimate float64
	if t.deterministic {
		estimate = microseconds(d) / deterministicOpMicros
	} else {
		pt := t.ensureLocked(opType)
		if pt.tPerOp <= 0 {
			return 1
		}
		estimate = microseconds(d) / pt.tPerOp
	}
	if estimate < 1 {
		return 1
	}
	return int64(estimate)
}

func microseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
