// Package store persists genomes, jobs, and checkpoints behind a
// small key-value interface, mirroring the shape of the genomes/jobs/
// checkpoints tables the coordinator used to keep in SQLite without
// committing to any particular database engine.
package store

import (
	"time"

	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/fitness"
	"github.com/evosim/evo-wasm/ids"
)

// GenomeRecord is one lineage's latest genome and running statistics.
type GenomeRecord struct {
	LineageID ids.LineageId
	Program   []byte
	Stats     fitness.LineageStats
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobRecord is one island job's configuration and lifecycle bookkeeping.
type JobRecord struct {
	JobID     ids.JobId
	Body      []byte
	CreatedAt time.Time
	Completed bool
}

// CheckpointRecord is a periodic snapshot of coordinator counters.
type CheckpointRecord struct {
	Timestamp        int64
	NumJobsCreated   uint64
	NumJobsCompleted uint64
}

// Store is the persistence surface every coordinator component reads
// and writes through; memstore and filestore both satisfy it.
type Store interface {
	PutGenome(id ids.LineageId, rec GenomeRecord) error
	GetGenome(id ids.LineageId) (GenomeRecord, error)
	ListGenomes() ([]GenomeRecord, error)

	PutJob(id ids.JobId, rec JobRecord) error
	GetJob(id ids.JobId) (JobRecord, error)

	AppendCheckpoint(rec CheckpointRecord) error
	LatestCheckpoint() (CheckpointRecord, error)
	PruneCheckpoints(keep int) error

	CountLineages() (int, error)
}

var ErrNotFound = evoerr.New(evoerr.NotFound, "store", nil)
