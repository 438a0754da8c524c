// Package job defines the scheduler's data model: the unit of work a
// client submits (Job), the slice of a Job handed to one worker
// (JobChunk), the collection of chunks a worker runs between
// synchronization points (JobChunkBatch), the synchronization point
// itself (Barrier), and the batch of jobs a client submits together
// (ClientBatch).
package job

import "time"

// OpTypeID identifies a kind of operation for the purpose of the
// adaptive time model: all Jobs sharing an OpTypeID are assumed to
// cost about the same time per unit of progress.
type OpTypeID string

// Job is one operation submitted to the scheduler, normally
// representing a link operation over some span of indices
// [0, MaxProgress). The scheduler divides a Job into JobChunks and
// hands them to workers; Progress tracks how much of the Job has
// already been assigned (not how much has finished running).
type Job struct {
	// Copier builds one independent clone of the kernel and returns a
	// task closure bound to that clone. Called once per JobChunk
	// assigned to a worker, this is the Go reading of the cloned
	// kernel-copy/task-closure pair that the C++ scheduler builds with
	// std::any and a forward_list of copies (see Design Notes).
	Copier func(j *Job) func(start, end int64)

	// NextProgressPoint rounds a requested progress value up to the
	// next value aligned on a near-node boundary for this Job's link.
	NextProgressPoint func(p int64) int64

	// CombineAll folds every kernel clone made by Copier back into the
	// original kernel, if this Job has a combiner. No-op otherwise.
	CombineAll func(j *Job)

	KernelName  string
	OpTypeID    OpTypeID
	OpPerfLogID int

	// Progress is how much of the Job has been assigned to workers so
	// far; it reaches MaxProgress once the whole Job has been handed
	// out, though the assigned work may still be running.
	Progress    int64
	MaxProgress int64

	// Indivisible jobs must run as a single chunk on a single worker
	// (e.g. because the kernel has ordering requirements across the
	// whole span).
	Indivisible bool

	// ComponentID is the near-node's owning component. Two Jobs with
	// the same ComponentID must never run concurrently (the near-node
	// exclusion guarantee): they may read or write the same component
	// data.
	ComponentID int

	EstimatedTime time.Duration
}

// JobChunk is a contiguous span [Start, End) of one Job, with the task
// closure that runs it. Start and End are progress values, not raw
// indices — for Dense/AdjacencyList links they coincide, but for
// Local2D they are positions in the cumulative row-size arrays.
type JobChunk struct {
	Task  func(start, end int64)
	Start int64
	End   int64
	Job   *Job

	StartTime time.Time
	EndTime   time.Time
}

// JobChunkBatch is the set of JobChunks assigned to one worker for one
// Barrier.
type JobChunkBatch struct {
	Chunks []JobChunk

	StatsRecorded bool

	// NeededByWorker starts true and is read without a lock by the
	// scheduler while cleaning up old barriers. It only ever
	// transitions true->false, once, when the owning worker crosses
	// past this Barrier (in waitForNextBarrier, or in workLoop's
	// readyBarrier fast path) — a torn read can at
	// worst see a stale "true," which just delays cleanup of this
	// barrier by one more pass, never causes incorrect cleanup.
	NeededByWorker bool
}

// Barrier is a synchronization point: all workers must finish their
// JobChunkBatch for this Barrier before any of them moves on to the
// next one. Access is controlled by the scheduler's channel mutex.
type Barrier struct {
	DoneWorkers int

	Sequence uint64
	Jobs     []*Job

	SingleThreaded          bool
	SingleThreadedStartedYet bool
	Finalized               bool

	WorkerBatches []JobChunkBatch

	Next *Barrier
}

// NewBarrier allocates a Barrier with nWorkers empty worker batches,
// each starting out needed by its worker until waitForNextBarrier
// crosses past it.
func NewBarrier(nWorkers int, sequence uint64) *Barrier {
	b := &Barrier{
		Sequence:      sequence,
		WorkerBatches: make([]JobChunkBatch, nWorkers),
	}
	for i := range b.WorkerBatches {
		b.WorkerBatches[i].NeededByWorker = true
	}
	return b
}

// Finished reports whether every worker required for this Barrier has
// completed its batch: all of them for a multi-threaded Barrier, just
// one (whichever claimed it) for a single-threaded one.
func (b *Barrier) Finished(nWorkers int) bool {
	if b.SingleThreaded {
		return b.DoneWorkers >= 1
	}
	return b.DoneWorkers == nWorkers
}

// ClientBatch is a batch of Jobs submitted by one client, ready to be
// scheduled together. Jobs within a batch may run in any order and in
// parallel, except that two Jobs sharing a ComponentID can never run
// at the same time.
type ClientBatch struct {
	ClientBatchNumber uint64
	Jobs              []*Job
	ReadyToSchedule   bool
	Scheduled         bool
}
