package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/ChuLiYu/llrt/internal/job"
)

// busyWorkers reports the current count of workers executing a chunk
// to the metrics collector, if one is configured.
func (s *Scheduler) busyWorkers(delta int32) {
	n := atomic.AddInt32(&s.workersBusy, delta)
	if s.metrics != nil {
		s.metrics.SetWorkersBusy(int(n))
	}
}

// workLoop is the body of one worker goroutine. It walks the Barrier
// chain starting at firstBarrier, executing whichever JobChunkBatch
// was assigned to workerIndex in each Barrier it crosses, until told
// to terminate. readyBarrier is a fast-path shortcut: if this worker
// was the one whose broadcastCompleted call found the next Barrier
// already latest, it skips waitForNextBarrier and goes straight to
// barrier.Next rather than blocking on a cond that was never signaled.
func (s *Scheduler) workLoop(workerIndex int) {
	barrier := s.firstBarrier
	readyBarrier := false
	chanW := s.workChans[workerIndex]

	for {
		if readyBarrier {
			barrier.WorkerBatches[workerIndex].NeededByWorker = false
			barrier = barrier.Next
			readyBarrier = false
		} else {
			barrier = s.waitForNextBarrier(workerIndex, barrier)
		}

		chanW.mu.Lock()
		terminate := chanW.terminate
		chanW.mu.Unlock()
		if terminate || barrier == nil {
			return
		}

		if !barrier.SingleThreaded {
			batch := &barrier.WorkerBatches[workerIndex]
			for i := range batch.Chunks {
				chunk := &batch.Chunks[i]
				s.busyWorkers(1)
				chunk.StartTime = time.Now()
				chunk.Task(chunk.Start, chunk.End)
				chunk.EndTime = time.Now()
				s.busyWorkers(-1)
				if s.metrics != nil {
					s.metrics.IncChunksDispatched()
				}
			}

			s.schedMu.Lock()
			barrier.DoneWorkers++
			done := barrier.DoneWorkers == s.nWorkers
			if done {
				runCombiners(barrier.Jobs)
			}
			s.schedMu.Unlock()

			if done {
				readyBarrier = s.broadcastCompleted(barrier.Sequence, workerIndex)
				s.schedCond.Broadcast()
			}
		}

		singleThreadThis := false
		if barrier.SingleThreaded && !barrier.SingleThreadedStartedYet {
			s.schedMu.Lock()
			if !barrier.SingleThreadedStartedYet {
				barrier.SingleThreadedStartedYet = true
				singleThreadThis = true
			}
			s.schedMu.Unlock()
		}

		if singleThreadThis {
			batch := &barrier.WorkerBatches[workerIndex]
			for _, j := range barrier.Jobs {
				s.busyWorkers(1)
				task := j.Copier(j)
				start := time.Now()
				task(j.Progress, j.MaxProgress)
				j.Progress = j.MaxProgress
				j.CombineAll(j)
				end := time.Now()
				batch.Chunks = append(batch.Chunks, job.JobChunk{
					Start:     0,
					End:       j.MaxProgress,
					Job:       j,
					StartTime: start,
					EndTime:   end,
				})
				s.busyWorkers(-1)
				if s.metrics != nil {
					s.metrics.IncChunksDispatched()
				}
			}

			readyBarrier = s.broadcastCompleted(barrier.Sequence, workerIndex)
			s.schedMu.Lock()
			barrier.DoneWorkers = 1
			s.schedMu.Unlock()
			s.schedCond.Broadcast()
		}
	}
}

// waitForNextBarrier blocks on workerIndex's own channel until either
// this Barrier is finished (every worker's completedSequence has
// caught up to it) and a later one has already been linked in
// (latestSequence > barrier.Sequence), or shutdown is requested. This
// is the two-part predicate the scheduler thread establishes via
// broadcastLatest/broadcastCompleted under chanW's own mutex, so the
// read of barrier.Next below is safe without any lock of its own: the
// write to Next always happens-before the chanW.mu unlock that follows
// it in the same scheduler goroutine (see newBarrier/pourWater), which
// happens-before this matching chanW.mu lock.
func (s *Scheduler) waitForNextBarrier(workerIndex int, barrier *job.Barrier) *job.Barrier {
	chanW := s.workChans[workerIndex]
	chanW.mu.Lock()
	defer chanW.mu.Unlock()
	for {
		if chanW.terminate {
			return nil
		}
		if chanW.completedSequence >= barrier.Sequence && chanW.latestSequence > barrier.Sequence {
			barrier.WorkerBatches[workerIndex].NeededByWorker = false
			return barrier.Next
		}
		chanW.cond.Wait()
	}
}
