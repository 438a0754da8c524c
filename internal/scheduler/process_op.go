package scheduler

import "github.com/ChuLiYu/llrt/internal/job"

// ProcessOp is the client submission API (spec.md §4.C). It submits
// one operation to the scheduler: k is the original, possibly
// stateful kernel; pk is the first copy of the pure per-call state the
// kernel needs (a value type — Go's ordinary value-copy semantics give
// each worker an independent clone, the Go reading of the C++
// implementation's clone-factory closures, see DESIGN.md).
//
// iterate applies pk to every position in a chunk [start, end) of the
// operation's progress range. nextProgressPoint rounds a requested
// progress value up to the next near-node boundary. combiner, if not
// nil, folds each worker's kernel clone back into k after the
// operation completes — pass nil for stateless kernels.
//
// endOfBatch marks this as the last job of its ClientBatch, making the
// batch eligible for scheduling; blocking implies endOfBatch and
// additionally waits for the whole batch (not just this Job) to
// finish before returning. The returned batch number can be passed to
// FinishBatch.
func ProcessOp[Kernel any, PureKernel any](
	s *Scheduler,
	k *Kernel,
	pk PureKernel,
	linkName, kernelName string,
	opType job.OpTypeID,
	componentID int,
	maxProgress int64,
	indivisible bool,
	combiner func(k *Kernel, pk PureKernel),
	nextProgressPoint func(p int64) int64,
	iterate func(pk *PureKernel, start, end int64),
	endOfBatch bool,
	blocking bool,
) (uint64, error) {
	if blocking {
		endOfBatch = true
	}

	// Single-threaded fast path (spec.md §6): a Scheduler built with
	// Workers == 0 never spawns a scheduler goroutine, so ProcessOp
	// drives the kernel directly over the whole range instead of
	// going through the Barrier protocol, and always reports batch
	// number 0.
	if s.nWorkers == 0 {
		s.schedMu.Lock()
		if !s.started {
			s.schedMu.Unlock()
			return 0, ErrNotStarted
		}
		s.schedMu.Unlock()

		clone := pk
		iterate(&clone, 0, maxProgress)
		if combiner != nil {
			combiner(k, clone)
		}
		return 0, nil
	}

	s.schedMu.Lock()
	if !s.started {
		s.schedMu.Unlock()
		return 0, ErrNotStarted
	}

	var opPerfLogID int
	if s.perf != nil {
		opPerfLogID = s.perf.LogOpStart(linkName, kernelName, maxProgress)
	}

	var batch *job.ClientBatch
	if len(s.batches) == 0 || s.batches[len(s.batches)-1].ReadyToSchedule {
		s.clientBatchNumber++
		batch = &job.ClientBatch{ClientBatchNumber: s.clientBatchNumber}
		s.batches = append(s.batches, batch)
	} else {
		batch = s.batches[len(s.batches)-1]
	}
	batchNum := batch.ClientBatchNumber

	// copies holds one heap-allocated clone of pk per JobChunk assigned
	// to this Job; combineAll folds them back into k via combiner.
	copies := make([]*PureKernel, 0, 1)

	copier := func(*job.Job) func(int64, int64) {
		clone := pk
		copies = append(copies, &clone)
		ptr := copies[len(copies)-1]
		return func(start, end int64) {
			iterate(ptr, start, end)
		}
	}

	combineAll := func(*job.Job) {
		if combiner == nil {
			return
		}
		for _, ptr := range copies {
			combiner(k, *ptr)
		}
	}

	j := &job.Job{
		Copier:            copier,
		NextProgressPoint: nextProgressPoint,
		CombineAll:        combineAll,
		KernelName:        kernelName,
		OpTypeID:          opType,
		OpPerfLogID:       opPerfLogID,
		MaxProgress:       maxProgress,
		Indivisible:       indivisible,
		ComponentID:       componentID,
	}
	batch.Jobs = append(batch.Jobs, j)

	if endOfBatch {
		batch.ReadyToSchedule = true
	}
	s.schedMu.Unlock()

	if endOfBatch {
		s.schedCond.Broadcast()
	}

	if blocking {
		s.FinishBatches()
	}
	return batchNum, nil
}

// FinishBatch blocks until the ClientBatch numbered batchNumber has
// finished.
func (s *Scheduler) FinishBatch(batchNumber uint64) {
	s.completedMu.Lock()
	defer s.completedMu.Unlock()
	for s.completedClientBatchNum < batchNumber {
		s.completedCond.Wait()
	}
}

// FinishBatches marks the still-open ClientBatch, if any, ready to
// schedule, then blocks until every ClientBatch submitted so far has
// finished.
func (s *Scheduler) FinishBatches() {
	s.schedMu.Lock()
	num := s.clientBatchNumber
	closed := false
	if n := len(s.batches); n > 0 && !s.batches[n-1].ReadyToSchedule {
		s.batches[n-1].ReadyToSchedule = true
		closed = true
	}
	s.schedMu.Unlock()
	if closed {
		s.schedCond.Broadcast()
	}
	s.FinishBatch(num)
}
