package scheduler

import "github.com/ChuLiYu/llrt/internal/job"

// schedLoop is the scheduler thread (spec.md §4.A): it waits for a
// ready ClientBatch, a shutdown signal, or the current Barrier
// finishing, plans ready batches into Barriers, and finalizes
// completed ones. Exits (after telling the worker pool to terminate)
// once shutdown is requested.
func (s *Scheduler) schedLoop() {
	s.schedMu.Lock()
	for {
		var batch *job.ClientBatch
		for {
			if s.shutdown {
				break
			}
			for _, b := range s.batches {
				if b.ReadyToSchedule && !b.Scheduled {
					batch = b
					break
				}
			}
			if batch != nil {
				break
			}
			if !s.schedBarrier.Finalized && s.schedBarrier.Finished(s.nWorkers) {
				// schedBarrier.DoneWorkers won't change again, so
				// reading it without the lock later is safe.
				break
			}
			s.schedCond.Wait()
		}

		if !s.schedBarrier.Finalized && s.schedBarrier.Finished(s.nWorkers) {
			s.schedMu.Unlock()
			s.recordFinishedJobs()
			s.schedMu.Lock()
			s.schedBarrier.Finalized = true
			if s.schedBarrier.Next != nil {
				s.schedBarrier = s.schedBarrier.Next
			}
		}

		if s.shutdown {
			break
		}
		if batch == nil {
			continue
		}

		jobs := append([]*job.Job(nil), batch.Jobs...)
		s.schedMu.Unlock()
		s.planAllStages(jobs)
		s.schedMu.Lock()

		if s.schedBarrier.Finalized && s.schedBarrier.Next != nil {
			s.schedBarrier = s.schedBarrier.Next
		}
		s.sequenceClientMap[s.sequence] = batch.ClientBatchNumber
		batch.Scheduled = true
	}
	s.schedMu.Unlock()

	s.broadcastTerminate()
}

// collectStats records the observed timing of every chunk in batch
// into the adaptive time model and the performance logger.
func (s *Scheduler) collectStats(batch *job.JobChunkBatch, worker int) {
	for i := range batch.Chunks {
		chunk := &batch.Chunks[i]
		s.tracker.TrackOp(chunk.Job.OpTypeID, chunk.EndTime.Sub(chunk.StartTime), chunk.End-chunk.Start)
		if s.perf != nil {
			s.perf.LogChunk(chunk.Job.OpPerfLogID, chunk.Start, chunk.End, chunk.StartTime, chunk.EndTime, worker)
		}
		if s.metrics != nil {
			s.metrics.ObserveChunkDuration(chunk.EndTime.Sub(chunk.StartTime).Seconds())
		}
	}
}

// recordFinishedJobs runs once schedBarrier has finished: it collects
// timing stats from every worker's batch, notifies any client waiting
// on FinishBatch for the corresponding ClientBatch, and cleans up
// barriers/batches that are no longer needed.
func (s *Scheduler) recordFinishedJobs() {
	s.schedMu.Lock()
	barrier := s.schedBarrier
	for worker := 0; worker < s.nWorkers; worker++ {
		batch := &barrier.WorkerBatches[worker]
		s.collectStats(batch, worker)
		batch.StatsRecorded = true
	}
	s.schedMu.Unlock()

	s.schedMu.Lock()
	clientBatchNum, ok := s.sequenceClientMap[barrier.Sequence]
	if ok {
		delete(s.sequenceClientMap, barrier.Sequence)
	}
	s.schedMu.Unlock()

	if ok {
		s.completedMu.Lock()
		s.completedClientBatchNum = clientBatchNum
		s.completedMu.Unlock()
		s.completedCond.Broadcast()
	}

	// The sequence-0 Barrier built by Start was never planned, so it is
	// not counted as finalized either.
	if s.metrics != nil && barrier.Sequence > 0 {
		s.metrics.IncBarriersFinalized()
	}

	s.cleanupBarrier()
}

// cleanupBarrier releases Barriers and ClientBatches that no worker
// needs any more and that the scheduler has already moved past.
func (s *Scheduler) cleanupBarrier() {
	s.schedMu.Lock()
	b := s.firstBarrier
	for b != nil {
		if b == s.schedBarrier {
			break
		}
		neededByWorker := false
		for worker := 0; worker < s.nWorkers; worker++ {
			if b.WorkerBatches[worker].NeededByWorker {
				neededByWorker = true
				break
			}
		}
		if neededByWorker {
			break
		}
		b = b.Next
		s.firstBarrier = b
	}

	kept := s.batches[:0]
	for _, batch := range s.batches {
		if batch.ClientBatchNumber > s.readCompletedClientBatchNum() {
			kept = append(kept, batch)
		}
	}
	s.batches = kept
	s.schedMu.Unlock()
}

func (s *Scheduler) readCompletedClientBatchNum() uint64 {
	s.completedMu.Lock()
	defer s.completedMu.Unlock()
	return s.completedClientBatchNum
}
