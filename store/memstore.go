package store

import (
	"sort"
	"sync"

	"github.com/evosim/evo-wasm/ids"
)

// memstore is a sync.RWMutex-guarded map store, grounded on the same
// locking discipline as census.MemCensus. `evoctl simulate` and the
// coordinator and API tests use it; `evoctl serve` uses the file store.
type memstore struct {
	mu          sync.RWMutex
	genomes     map[ids.LineageId]GenomeRecord
	jobs        map[ids.JobId]JobRecord
	checkpoints []CheckpointRecord
}

func NewMemStore() Store {
	return &memstore{
		genomes: make(map[ids.LineageId]GenomeRecord),
		jobs:    make(map[ids.JobId]JobRecord),
	}
}

func (m *memstore) PutGenome(id ids.LineageId, rec GenomeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genomes[id] = rec
	return nil
}

func (m *memstore) GetGenome(id ids.LineageId) (GenomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.genomes[id]
	if !ok {
		return GenomeRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *memstore) ListGenomes() ([]GenomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GenomeRecord, 0, len(m.genomes))
	for _, rec := range m.genomes {
		out = append(out, rec)
	}
	// Deterministic iteration order for callers (selection ranking)
	// that need a stable tie-break before applying their own sort.
	sort.Slice(out, func(i, j int) bool { return out[i].LineageID.String() < out[j].LineageID.String() })
	return out, nil
}

func (m *memstore) PutJob(id ids.JobId, rec JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id] = rec
	return nil
}

func (m *memstore) GetJob(id ids.JobId) (JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok {
		return JobRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *memstore) AppendCheckpoint(rec CheckpointRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints = append(m.checkpoints, rec)
	return nil
}

func (m *memstore) LatestCheckpoint() (CheckpointRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.checkpoints) == 0 {
		return CheckpointRecord{}, ErrNotFound
	}
	return m.checkpoints[len(m.checkpoints)-1], nil
}

// PruneCheckpoints drops all but the most recent keep checkpoints.
func (m *memstore) PruneCheckpoints(keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.checkpoints) <= keep {
		return nil
	}
	m.checkpoints = m.checkpoints[len(m.checkpoints)-keep:]
	return nil
}

func (m *memstore) CountLineages() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.genomes), nil
}
