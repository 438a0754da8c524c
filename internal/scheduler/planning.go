package scheduler

import (
	"time"

	"github.com/ChuLiYu/llrt/internal/job"
)

// assignJob hands job a chunk of work aiming to take desiredDuration;
// a zero desiredDuration (or an indivisible Job) assigns the whole
// remaining span in one chunk. It returns the estimated time the
// assigned chunk will take.
func (s *Scheduler) assignJob(j *job.Job, batch *job.JobChunkBatch, desiredDuration time.Duration) time.Duration {
	var assignedProgress int64
	if j.Indivisible || desiredDuration == 0 {
		assignedProgress = j.MaxProgress - j.Progress
	} else {
		assignedProgress = s.tracker.EstimateOpsFromTime(j.OpTypeID, desiredDuration)
		if assignedProgress == 0 {
			assignedProgress = 1
		}
		assignedProgress = j.NextProgressPoint(j.Progress+assignedProgress) - j.Progress
		if assignedProgress+j.Progress > j.MaxProgress {
			assignedProgress = j.MaxProgress - j.Progress
		}
	}

	batch.Chunks = append(batch.Chunks, job.JobChunk{
		Task:  j.Copier(j),
		Start: j.Progress,
		End:   j.Progress + assignedProgress,
		Job:   j,
	})
	j.Progress += assignedProgress
	return s.tracker.EstimateTimeOp(j.OpTypeID, assignedProgress)
}

// selectWater greedily pulls at most one Job per ComponentID out of
// buckets into waterToPour, upholding the near-node exclusion
// guarantee for the Barrier being planned, and returns the total
// estimated time of the selected Jobs.
func (s *Scheduler) selectWater(buckets *[]*job.Job, waterToPour *[]*job.Job) time.Duration {
	seen := make(map[int]bool)
	var totWater time.Duration
	remaining := (*buckets)[:0]
	for _, j := range *buckets {
		if !seen[j.ComponentID] {
			seen[j.ComponentID] = true
			*waterToPour = append(*waterToPour, j)
			totWater += s.tracker.EstimateTimeOp(j.OpTypeID, j.MaxProgress)
		} else {
			remaining = append(remaining, j)
		}
	}
	*buckets = remaining
	return totWater
}

// pourWater creates a new multi-threaded Barrier and distributes the
// jobs in buckets across the worker pool: each worker gets a "water
// column" of jobs/job-fragments totaling about totWater/nWorkers of
// estimated time, except the last worker, which unconditionally
// receives everything left over.
func (s *Scheduler) pourWater(buckets *[]*job.Job, totWater time.Duration) {
	barrier := s.newBarrier()
	if s.metrics != nil {
		s.metrics.IncBarriersPlanned()
	}
	waterLevel := totWater / time.Duration(s.nWorkers)

	remaining := *buckets
	for i := 0; i < s.nWorkers; i++ {
		batch := &barrier.WorkerBatches[i]
		var waterColumn time.Duration

		for len(remaining) > 0 {
			bucket := remaining[0]
			est := s.tracker.EstimateTimeOp(bucket.OpTypeID, bucket.MaxProgress-bucket.Progress)
			newHeight := waterColumn + est
			if newHeight < waterLevel || i == s.nWorkers-1 {
				waterColumn = newHeight
				s.assignJob(bucket, batch, 0)
				barrier.Jobs = append(barrier.Jobs, bucket)
				remaining = remaining[1:]
				continue
			}
			timeAvailable := waterLevel - waterColumn
			timeAssigned := s.assignJob(bucket, batch, timeAvailable)
			waterColumn += timeAssigned
			if bucket.Progress == bucket.MaxProgress {
				barrier.Jobs = append(barrier.Jobs, bucket)
				remaining = remaining[1:]
			}
			break
		}
	}
	*buckets = remaining
	s.broadcastLatest(s.lastBarrier.Sequence)
}

// singleThreadedSchedule creates a single-threaded Barrier whose jobs
// will all be run, in full, by whichever worker claims it first —
// used when the total estimated time of a Barrier's jobs is too small
// for distributing them across workers to pay off.
func (s *Scheduler) singleThreadedSchedule(jobs []*job.Job) {
	barrier := s.newBarrier()
	if s.metrics != nil {
		s.metrics.IncBarriersPlanned()
	}
	barrier.Jobs = append(barrier.Jobs, jobs...)
	barrier.SingleThreaded = true
	s.broadcastLatest(s.lastBarrier.Sequence)
}

// planAllStages splits a ClientBatch's jobs into one or more Barriers,
// using selectWater to keep the near-node exclusion guarantee and
// pourWater/singleThreadedSchedule to decide how to distribute each
// Barrier's jobs.
func (s *Scheduler) planAllStages(jobs []*job.Job) {
	for _, j := range jobs {
		s.tracker.EnsureTracked(j.OpTypeID)
	}

	remaining := jobs
	for len(remaining) > 0 {
		var waterToPour []*job.Job
		totWater := s.selectWater(&remaining, &waterToPour)
		if totWater < s.singleThreadThreshold {
			s.singleThreadedSchedule(waterToPour)
		} else {
			s.pourWater(&waterToPour, totWater)
		}
	}
}

func runCombiners(jobs []*job.Job) {
	for _, j := range jobs {
		j.CombineAll(j)
	}
}
