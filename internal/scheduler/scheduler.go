// Package scheduler implements the scheduler thread, the worker pool,
// and the client submission API described in spec.md §4.A-C: one
// scheduler goroutine plans work into Barriers and hands JobChunks to
// a fixed pool of worker goroutines, synchronizing at each Barrier via
// sync.Mutex/sync.Cond pairs that mirror the C++ implementation's
// mutex/condition_variable protocol closely enough to keep the same
// wait predicates.
package scheduler

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ChuLiYu/llrt/internal/job"
	"github.com/ChuLiYu/llrt/internal/metrics"
	"github.com/ChuLiYu/llrt/internal/perflog"
	"github.com/ChuLiYu/llrt/internal/timemodel"
)

// ErrAlreadyStarted is returned by Start when the scheduler is already
// running.
var ErrAlreadyStarted = errors.New("scheduler: already started")

// ErrNotStarted is returned by ProcessOp when the scheduler hasn't
// been started yet.
var ErrNotStarted = errors.New("scheduler: not started")

// Config configures a Scheduler.
type Config struct {
	// Workers is the number of worker goroutines to run, fixed for the
	// lifetime of the Scheduler (no dynamic add/remove, per spec.md's
	// Non-goals).
	Workers int

	// Deterministic bypasses the adaptive time model with a fixed
	// per-op cost, so scheduling decisions don't depend on machine
	// speed or load.
	Deterministic bool

	// SingleThreadThreshold is the estimated-time cutoff below which a
	// Barrier's jobs all run, in full, on whichever single worker claims
	// the Barrier first rather than being split across the worker pool,
	// because the overhead of distributing them would exceed the
	// benefit.
	SingleThreadThreshold time.Duration

	Metrics *metrics.Collector
	Perf    *perflog.Logger
	Log     *slog.Logger
}

type workerChannel struct {
	mu                sync.Mutex
	cond              *sync.Cond
	terminate         bool
	latestSequence    uint64
	completedSequence uint64
}

// Scheduler is a parallel job scheduler: one scheduler goroutine plans
// ClientBatches into Barriers of JobChunks, a fixed pool of worker
// goroutines executes them, and the near-node exclusion guarantee
// (two Jobs sharing a ComponentID never run concurrently) is upheld
// by planAllStages picking at most one Job per ComponentID into any
// single Barrier.
type Scheduler struct {
	nWorkers              int
	singleThreadThreshold time.Duration

	// schedMu guards everything below it through sequenceClientMap,
	// mirroring the C++ SchedChannel's mutex.
	schedMu    sync.Mutex
	schedCond  *sync.Cond
	batches    []*job.ClientBatch
	shutdown   bool
	clientBatchNumber uint64

	firstBarrier *job.Barrier
	lastBarrier  *job.Barrier
	schedBarrier *job.Barrier
	sequence     uint64

	sequenceClientMap map[uint64]uint64

	// completedMu guards completedClientBatchNum, separate from
	// schedMu so clients waiting in FinishBatch block on their own lock
	// and condition rather than the submission lock.
	completedMu             sync.Mutex
	completedCond           *sync.Cond
	completedClientBatchNum uint64

	workChans []*workerChannel

	workersBusy int32

	tracker *timemodel.Tracker
	perf    *perflog.Logger
	metrics *metrics.Collector
	log     *slog.Logger

	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New creates a Scheduler. Call Start before submitting any work.
// Workers == 0 is the single-threaded fast path (spec.md §6): no
// scheduler goroutine or worker pool is ever spawned, and ProcessOp
// runs the kernel synchronously instead of going through the Barrier
// protocol. Negative values are clamped to that same fast path.
func New(cfg Config) *Scheduler {
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}
	if cfg.SingleThreadThreshold <= 0 {
		cfg.SingleThreadThreshold = 30 * time.Microsecond
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		nWorkers:              cfg.Workers,
		singleThreadThreshold: cfg.SingleThreadThreshold,
		tracker:               timemodel.New(cfg.Deterministic),
		perf:                  cfg.Perf,
		metrics:               cfg.Metrics,
		log:                   log.With("component", "scheduler"),
		sequenceClientMap:     make(map[uint64]uint64),
		workChans:             make([]*workerChannel, cfg.Workers),
	}
	s.schedCond = sync.NewCond(&s.schedMu)
	s.completedCond = sync.NewCond(&s.completedMu)
	for i := range s.workChans {
		wc := &workerChannel{}
		wc.cond = sync.NewCond(&wc.mu)
		s.workChans[i] = wc
	}
	return s
}

// Start spawns the scheduler goroutine and the worker pool. Workers
// are pinned to CPU cores best-effort on Linux (see affinity_linux.go);
// on other platforms pinning is a no-op. If the Scheduler was built
// with Workers == 0, no goroutine is spawned at all: ProcessOp will
// run every kernel synchronously on the caller's own goroutine.
func (s *Scheduler) Start() error {
	s.schedMu.Lock()
	if s.started {
		s.schedMu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true

	if s.nWorkers == 0 {
		s.schedMu.Unlock()
		return nil
	}

	s.firstBarrier = job.NewBarrier(s.nWorkers, s.sequence)
	s.firstBarrier.DoneWorkers = s.nWorkers
	s.lastBarrier = s.firstBarrier
	s.schedBarrier = s.firstBarrier
	s.schedMu.Unlock()

	s.wg.Add(s.nWorkers)
	for i := 0; i < s.nWorkers; i++ {
		go func(idx int) {
			defer s.wg.Done()
			pinToCPU(idx)
			s.workLoop(idx)
		}(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.schedLoop()
	}()

	return nil
}

// Stop signals shutdown and waits for the scheduler and worker
// goroutines to exit.
func (s *Scheduler) Stop() {
	s.schedMu.Lock()
	if s.stopped {
		s.schedMu.Unlock()
		return
	}
	s.stopped = true
	s.shutdown = true
	s.schedMu.Unlock()
	s.schedCond.Broadcast()

	s.wg.Wait()
}

func (s *Scheduler) newBarrier() *job.Barrier {
	s.sequence++
	b := job.NewBarrier(s.nWorkers, s.sequence)
	s.lastBarrier.Next = b
	s.lastBarrier = b
	return b
}

func (s *Scheduler) broadcastLatest(latest uint64) {
	for _, chan_ := range s.workChans {
		chan_.mu.Lock()
		if latest > chan_.latestSequence {
			chan_.latestSequence = latest
		}
		chan_.mu.Unlock()
		chan_.cond.Broadcast()
	}
}

func (s *Scheduler) broadcastTerminate() {
	for _, chan_ := range s.workChans {
		chan_.mu.Lock()
		chan_.terminate = true
		chan_.mu.Unlock()
		chan_.cond.Broadcast()
	}
}

// broadcastCompleted notifies every worker channel that the barrier
// numbered completed has finished, and reports whether the notifying
// worker (workerWhoNotifies) already has a later barrier ready to run.
func (s *Scheduler) broadcastCompleted(completed uint64, workerWhoNotifies int) bool {
	readyBarrier := false
	for i, chan_ := range s.workChans {
		chan_.mu.Lock()
		if completed > chan_.completedSequence {
			chan_.completedSequence = completed
		}
		if i == workerWhoNotifies {
			readyBarrier = chan_.latestSequence > completed
		}
		chan_.mu.Unlock()
		chan_.cond.Broadcast()
	}
	return readyBarrier
}
