// Package evo implements the evolution coordinator: job creation,
// genome selection for new jobs, and the cross-island selection cycle
// that breeds the next generation of lineages from survivors'
// results.
package evo

import (
	"math/rand"
	"sort"
	"time"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/fitness"
	"github.com/evosim/evo-wasm/ids"
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/log"
	"github.com/evosim/evo-wasm/store"
)

var Logger = log.Null()

const (
	seedGenomesPerJob        = 10
	selectionLineageThreshold = 20
	offspringPerCycle        = 10
)

// IslandJob is one unit of work a worker executes: the config to run
// with and the seed genomes to populate the island with.
type IslandJob struct {
	JobID   ids.JobId
	Config  config.JobConfig
	Genomes []SeedGenomeWire
}

// SeedGenomeWire pairs a lineage with its serialized program, the wire
// shape used both over HTTP and in persistence.
type SeedGenomeWire struct {
	LineageID  ids.LineageId
	Generation int
	Program    []byte
}

// IslandResult is what a worker submits back after running a job.
type IslandResult struct {
	JobID        ids.JobId
	LineageStats []fitness.LineageStats
	Survivors    []SeedGenomeWire
	TotalTicks   int64
}

// Coordinator owns the persistent genome pool and the job lifecycle
// built on top of it.
type Coordinator struct {
	store   store.Store
	mutator *ir.Mutator
	rng     *rand.Rand
	cfg     config.JobConfig
}

func NewCoordinator(st store.Store, cfg config.JobConfig, seed int64) *Coordinator {
	return &Coordinator{
		store:   st,
		mutator: ir.NewMutator(ir.DefaultMutatorConfig()),
		rng:     rand.New(rand.NewSource(seed)),
		cfg:     cfg,
	}
}

// CreateJob selects seed genomes and records a new pending job.
func (c *Coordinator) CreateJob() (IslandJob, error) {
	genomes, err := c.SelectGenomesForJob(seedGenomesPerJob)
	if err != nil {
		return IslandJob{}, err
	}
	job := IslandJob{JobID: ids.NewJobId(), Config: c.cfg, Genomes: genomes}

	body, err := encodeJob(job)
	if err != nil {
		return IslandJob{}, err
	}
	if err := c.store.PutJob(job.JobID, store.JobRecord{JobID: job.JobID, Body: body, CreatedAt: time.Now()}); err != nil {
		return IslandJob{}, evoerr.New(evoerr.Database, "evo.CreateJob", err)
	}
	return job, nil
}

// SelectGenomesForJob bootstraps N random genomes if the store is
// empty; otherwise it takes the top 70% by best scalar fitness as
// elites and fills the remaining 30% by uniform sampling without
// replacement from the full pool, for diversity.
func (c *Coordinator) SelectGenomesForJob(n int) ([]SeedGenomeWire, error) {
	records, err := c.store.ListGenomes()
	if err != nil {
		return nil, evoerr.New(evoerr.Database, "evo.SelectGenomesForJob", err)
	}

	if len(records) == 0 {
		out := make([]SeedGenomeWire, 0, n)
		for i := 0; i < n; i++ {
			genome := bootstrapGenome(c.rng, c.mutator)
			encoded, err := ir.ToBytes(genome)
			if err != nil {
				return nil, err
			}
			out = append(out, SeedGenomeWire{LineageID: ids.NewLineageId(), Program: encoded})
		}
		return out, nil
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Stats.BestScalar > records[j].Stats.BestScalar })

	eliteCount := n * 7 / 10
	if eliteCount > len(records) {
		eliteCount = len(records)
	}
	out := make([]SeedGenomeWire, 0, n)
	for i := 0; i < eliteCount; i++ {
		out = append(out, wireFromRecord(records[i]))
	}

	remaining := n - eliteCount
	pool := append([]store.GenomeRecord(nil), records...)
	c.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for i := 0; i < remaining && i < len(pool); i++ {
		out = append(out, wireFromRecord(pool[i]))
	}
	return out, nil
}

// Config returns the job configuration new islands are created with.
func (c *Coordinator) Config() config.JobConfig { return c.cfg }

// CountLineagesForStats exposes the store's lineage count for the
// coordinator's HTTP stats endpoint without leaking the store type.
func (c *Coordinator) CountLineagesForStats() (int, error) {
	n, err := c.store.CountLineages()
	if err != nil {
		return 0, evoerr.New(evoerr.Database, "evo.CountLineagesForStats", err)
	}
	return n, nil
}

// GetJob loads and decodes a previously created job by id.
func (c *Coordinator) GetJob(id ids.JobId) (IslandJob, error) {
	rec, err := c.store.GetJob(id)
	if err != nil {
		return IslandJob{}, err
	}
	return decodeJob(rec.Body)
}

func wireFromRecord(r store.GenomeRecord) SeedGenomeWire {
	return SeedGenomeWire{LineageID: r.LineageID, Generation: r.Stats.Generation, Program: r.Program}
}

// ProcessResult folds a completed island's lineage stats into
// persistence, storing each survivor's genome, then triggers a
// selection cycle once enough lineages are known.
func (c *Coordinator) ProcessResult(result IslandResult) error {
	now := time.Now()
	for _, stats := range result.LineageStats {
		existing, err := c.store.GetGenome(stats.LineageID)
		var program []byte
		createdAt := now
		if err == nil {
			program = existing.Program
			createdAt = existing.CreatedAt
		}
		rec := store.GenomeRecord{
			LineageID: stats.LineageID, Program: program, Stats: stats,
			CreatedAt: createdAt, UpdatedAt: now,
		}
		if err := c.store.PutGenome(stats.LineageID, rec); err != nil {
			return evoerr.New(evoerr.Database, "evo.ProcessResult", err)
		}
	}
	for _, survivor := range result.Survivors {
		existing, err := c.store.GetGenome(survivor.LineageID)
		stats := existing.Stats
		createdAt := now
		if err == nil {
			createdAt = existing.CreatedAt
		}
		rec := store.GenomeRecord{
			LineageID: survivor.LineageID, Program: survivor.Program, Stats: stats,
			CreatedAt: createdAt, UpdatedAt: now,
		}
		if err := c.store.PutGenome(survivor.LineageID, rec); err != nil {
			return evoerr.New(evoerr.Database, "evo.ProcessResult", err)
		}
	}

	count, err := c.store.CountLineages()
	if err != nil {
		return evoerr.New(evoerr.Database, "evo.ProcessResult", err)
	}
	if count >= selectionLineageThreshold {
		return c.PerformSelection()
	}
	return nil
}

// PerformSelection ranks every lineage, keeps the top half, and
// breeds offspringPerCycle new lineages by crossing two survivors
// (sampled with replacement) and mutating the result.
func (c *Coordinator) PerformSelection() error {
	records, err := c.store.ListGenomes()
	if err != nil {
		return evoerr.New(evoerr.Database, "evo.PerformSelection", err)
	}
	if len(records) == 0 {
		return nil
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Stats.BestScalar > records[j].Stats.BestScalar })

	keep := len(records) / 2
	if keep < 2 {
		keep = len(records)
	}
	survivors := records[:keep]

	for i := 0; i < offspringPerCycle; i++ {
		p1 := survivors[c.rng.Intn(len(survivors))]
		p2 := survivors[c.rng.Intn(len(survivors))]

		prog1, err := ir.FromBytes(p1.Program)
		if err != nil {
			return err
		}
		prog2, err := ir.FromBytes(p2.Program)
		if err != nil {
			return err
		}

		child := ir.Crossover(c.rng, c.mutator.Config, prog1, prog2)
		child = c.mutator.Mutate(c.rng, child)

		generation := p1.Stats.Generation
		if p2.Stats.Generation > generation {
			generation = p2.Stats.Generation
		}
		generation++

		encoded, err := ir.ToBytes(child)
		if err != nil {
			return err
		}
		childID := ids.NewLineageId()
		rec := store.GenomeRecord{
			LineageID: childID,
			Program:   encoded,
			Stats:     fitness.LineageStats{LineageID: childID, Generation: generation},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := c.store.PutGenome(childID, rec); err != nil {
			return evoerr.New(evoerr.Database, "evo.PerformSelection", err)
		}
	}
	return nil
}
