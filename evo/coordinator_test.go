package evo

import (
	"testing"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/fitness"
	"github.com/evosim/evo-wasm/ids"
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/store"
)

func TestSelectGenomesForJobBootstrapsWhenEmpty(t *testing.T) {
	c := NewCoordinator(store.NewMemStore(), config.Default(), 1)
	wires, err := c.SelectGenomesForJob(10)
	if err != nil {
		t.Fatalf("SelectGenomesForJob: %v", err)
	}
	if len(wires) != 10 {
		t.Fatalf("got %d genomes, want 10", len(wires))
	}
	for _, w := range wires {
		if _, err := ir.FromBytes(w.Program); err != nil {
			t.Errorf("bootstrap genome for lineage %s failed to decode: %v", w.LineageID, err)
		}
	}
}

func TestSelectGenomesForJobElitePlusDiversity(t *testing.T) {
	st := store.NewMemStore()
	c := NewCoordinator(st, config.Default(), 1)

	for i := 0; i < 20; i++ {
		id := ids.NewLineageId()
		program := bootstrapGenome(c.rng, c.mutator)
		encoded, err := ir.ToBytes(program)
		if err != nil {
			t.Fatalf("ToBytes: %v", err)
		}
		rec := store.GenomeRecord{
			LineageID: id, Program: encoded,
			Stats: fitness.LineageStats{LineageID: id, BestScalar: float64(i)},
		}
		if err := st.PutGenome(id, rec); err != nil {
			t.Fatalf("PutGenome: %v", err)
		}
	}

	wires, err := c.SelectGenomesForJob(10)
	if err != nil {
		t.Fatalf("SelectGenomesForJob: %v", err)
	}
	if len(wires) != 10 {
		t.Fatalf("got %d genomes, want 10", len(wires))
	}
}

func TestCreateJobRoundTrips(t *testing.T) {
	c := NewCoordinator(store.NewMemStore(), config.Default(), 1)
	job, err := c.CreateJob()
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	got, err := c.GetJob(job.JobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if len(got.Genomes) != len(job.Genomes) {
		t.Errorf("GetJob returned %d genomes, want %d", len(got.Genomes), len(job.Genomes))
	}
}

func TestPerformSelectionBreedsOffspring(t *testing.T) {
	st := store.NewMemStore()
	c := NewCoordinator(st, config.Default(), 1)

	for i := 0; i < 20; i++ {
		id := ids.NewLineageId()
		program := bootstrapGenome(c.rng, c.mutator)
		encoded, err := ir.ToBytes(program)
		if err != nil {
			t.Fatalf("ToBytes: %v", err)
		}
		rec := store.GenomeRecord{LineageID: id, Program: encoded, Stats: fitness.LineageStats{LineageID: id, BestScalar: float64(i)}}
		if err := st.PutGenome(id, rec); err != nil {
			t.Fatalf("PutGenome: %v", err)
		}
	}

	before, err := c.CountLineagesForStats()
	if err != nil {
		t.Fatalf("CountLineagesForStats: %v", err)
	}
	if err := c.PerformSelection(); err != nil {
		t.Fatalf("PerformSelection: %v", err)
	}
	after, err := c.CountLineagesForStats()
	if err != nil {
		t.Fatalf("CountLineagesForStats: %v", err)
	}
	if after != before+offspringPerCycle {
		t.Errorf("lineage count after selection = %d, want %d", after, before+offspringPerCycle)
	}
}

func TestProcessResultTriggersSelectionAtThreshold(t *testing.T) {
	st := store.NewMemStore()
	c := NewCoordinator(st, config.Default(), 1)

	var stats []fitness.LineageStats
	for i := 0; i < selectionLineageThreshold; i++ {
		id := ids.NewLineageId()
		program := bootstrapGenome(c.rng, c.mutator)
		encoded, err := ir.ToBytes(program)
		if err != nil {
			t.Fatalf("ToBytes: %v", err)
		}
		if err := st.PutGenome(id, store.GenomeRecord{LineageID: id, Program: encoded}); err != nil {
			t.Fatalf("PutGenome: %v", err)
		}
		stats = append(stats, fitness.LineageStats{LineageID: id, BestScalar: float64(i)})
	}
	if err := c.ProcessResult(IslandResult{LineageStats: stats}); err != nil {
		t.Fatalf("ProcessResult: %v", err)
	}

	count, err := c.CountLineagesForStats()
	if err != nil {
		t.Fatalf("CountLineagesForStats: %v", err)
	}
	if count != selectionLineageThreshold+offspringPerCycle {
		t.Errorf("lineage count = %d, want %d (threshold reached, selection should have bred offspring)", count, selectionLineageThreshold+offspringPerCycle)
	}
}
