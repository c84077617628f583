package api

import (
	"testing"
	"time"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/store"
)

func newTestJobManager() *JobManager {
	c := evo.NewCoordinator(store.NewMemStore(), config.Default(), 1)
	return NewJobManager(c)
}

func TestGetJobCreatesWhenPendingEmpty(t *testing.T) {
	jm := newTestJobManager()
	job, err := jm.GetJob()
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if len(job.Genomes) == 0 {
		t.Error("freshly created job should have genomes")
	}

	stats, err := jm.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalJobs != 1 {
		t.Errorf("TotalJobs = %d, want 1", stats.TotalJobs)
	}
}

func TestMarkJobCompleteIsIdempotent(t *testing.T) {
	jm := newTestJobManager()
	job, err := jm.GetJob()
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}

	result := evo.IslandResult{JobID: job.JobID}
	already, err := jm.MarkJobComplete(result)
	if err != nil {
		t.Fatalf("MarkJobComplete: %v", err)
	}
	if already {
		t.Error("first submission should not be reported as already done")
	}

	already, err = jm.MarkJobComplete(result)
	if err != nil {
		t.Fatalf("MarkJobComplete (dup): %v", err)
	}
	if !already {
		t.Error("duplicate submission should be reported as already done")
	}

	stats, err := jm.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.CompletedJobs != 1 {
		t.Errorf("CompletedJobs = %d, want 1 (duplicate must not double count)", stats.CompletedJobs)
	}
}

func TestCheckTimeoutsRequeuesExpiredLeases(t *testing.T) {
	jm := newTestJobManager()
	job, err := jm.GetJob()
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}

	jm.mu.Lock()
	leased := jm.assigned[job.JobID]
	leased.leasedAt = time.Now().Add(-time.Hour)
	jm.assigned[job.JobID] = leased
	jm.mu.Unlock()

	jm.CheckTimeouts(time.Minute)

	jm.mu.Lock()
	_, stillAssigned := jm.assigned[job.JobID]
	pendingCount := len(jm.pending)
	jm.mu.Unlock()

	if stillAssigned {
		t.Error("expired lease should be removed from assigned map")
	}
	if pendingCount != 1 {
		t.Errorf("pending count = %d, want 1 after requeue", pendingCount)
	}
}

func TestCheckTimeoutsLeavesFreshLeasesAlone(t *testing.T) {
	jm := newTestJobManager()
	if _, err := jm.GetJob(); err != nil {
		t.Fatalf("GetJob: %v", err)
	}

	jm.CheckTimeouts(time.Hour)

	jm.mu.Lock()
	pendingCount := len(jm.pending)
	assignedCount := len(jm.assigned)
	jm.mu.Unlock()

	if pendingCount != 0 || assignedCount != 1 {
		t.Errorf("pending=%d assigned=%d, want 0/1 (fresh lease untouched)", pendingCount, assignedCount)
	}
}
