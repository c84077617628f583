// Package api exposes the coordinator over HTTP: job request/submit
// for workers, stats and config for operators, and Prometheus metrics.
package api

import (
	"sync"
	"time"

	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/ids"
	"github.com/evosim/evo-wasm/log"
	"github.com/evosim/evo-wasm/stats"
)

var Logger = log.Null()

type leasedJob struct {
	job      evo.IslandJob
	leasedAt time.Time
}

// JobManager holds the pending queue and the assigned-with-lease map
// a worker poll loop drains from, with its two running totals kept in
// stats.Counter rather than plain fields.
type JobManager struct {
	mu sync.Mutex

	coordinator *evo.Coordinator
	pending     []evo.IslandJob
	assigned    map[ids.JobId]leasedJob
	completed   map[ids.JobId]bool

	totalCreated   stats.Counter
	totalCompleted stats.Counter
}

func NewJobManager(coordinator *evo.Coordinator) *JobManager {
	return &JobManager{
		coordinator: coordinator,
		assigned:    make(map[ids.JobId]leasedJob),
		completed:   make(map[ids.JobId]bool),
	}
}

// GetJob pops a pending job if one exists, or creates a fresh one;
// either way the job is moved into the assigned map under a lease
// starting now.
func (jm *JobManager) GetJob() (evo.IslandJob, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	var job evo.IslandJob
	if len(jm.pending) > 0 {
		job = jm.pending[0]
		jm.pending = jm.pending[1:]
	} else {
		created, err := jm.coordinator.CreateJob()
		if err != nil {
			return evo.IslandJob{}, err
		}
		job = created
		jm.totalCreated.Add(1)
	}
	jm.assigned[job.JobID] = leasedJob{job: job, leasedAt: time.Now()}
	return job, nil
}

// MarkJobComplete processes a submitted result and removes the job
// from the assigned map. Completion is checked before processing so a
// duplicate submission for an already-completed job is a no-op.
func (jm *JobManager) MarkJobComplete(result evo.IslandResult) (alreadyDone bool, err error) {
	jm.mu.Lock()
	if jm.completed[result.JobID] {
		jm.mu.Unlock()
		return true, nil
	}
	delete(jm.assigned, result.JobID)
	jm.completed[result.JobID] = true
	jm.totalCompleted.Add(1)
	jm.mu.Unlock()

	return false, jm.coordinator.ProcessResult(result)
}

// CheckTimeouts moves leases older than timeout back onto the pending
// queue for reassignment. Meant to run on a ticker; at-least-once
// delivery is acceptable here since duplicate submissions are no-ops.
func (jm *JobManager) CheckTimeouts(timeout time.Duration) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	now := time.Now()
	for id, leased := range jm.assigned {
		if now.Sub(leased.leasedAt) < timeout {
			continue
		}
		Logger.Printf("api: job %s lease expired, requeueing\n", id)
		delete(jm.assigned, id)
		jm.pending = append(jm.pending, leased.job)
	}
}

// Stats is the body served at GET /api/stats.
type Stats struct {
	TotalJobs      uint64 `json:"total_jobs"`
	PendingJobs    int    `json:"pending_jobs"`
	CompletedJobs  uint64 `json:"completed_jobs"`
	TotalLineages  int    `json:"total_lineages"`
}

func (jm *JobManager) Stats() (Stats, error) {
	jm.mu.Lock()
	pending := len(jm.pending)
	created := jm.totalCreated.Value()
	completed := jm.totalCompleted.Value()
	jm.mu.Unlock()

	lineages, err := jm.coordinator.CountLineagesForStats()
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalJobs: uint64(created), PendingJobs: pending, CompletedJobs: uint64(completed), TotalLineages: lineages}, nil
}
