package fitness

import (
	"testing"

	"github.com/evosim/evo-wasm/ids"
)

func TestScalarIgnoresNegativeNetEnergy(t *testing.T) {
	a := Scalar(Metrics{Lifetime: 10, NetEnergy: -500})
	b := Scalar(Metrics{Lifetime: 10, NetEnergy: 0})
	if a != b {
		t.Errorf("Scalar with negative NetEnergy = %v, want same as zero NetEnergy %v", a, b)
	}
}

func TestScalarMonotonic(t *testing.T) {
	base := Metrics{Lifetime: 10, NetEnergy: 100, OffspringCount: 1, TilesExplored: 5, Kills: 1}
	more := base
	more.OffspringCount++
	if Scalar(more) <= Scalar(base) {
		t.Error("Scalar should increase with an additional offspring")
	}
}

func TestDominates(t *testing.T) {
	a := Metrics{Lifetime: 10, NetEnergy: 10, OffspringCount: 1, TilesExplored: 5}
	b := Metrics{Lifetime: 10, NetEnergy: 10, OffspringCount: 0, TilesExplored: 5}
	if !Dominates(a, b) {
		t.Error("a should dominate b (strictly more offspring, equal elsewhere)")
	}
	if Dominates(b, a) {
		t.Error("b should not dominate a")
	}
	if Dominates(a, a) {
		t.Error("a should not dominate itself (no strict improvement)")
	}
}

func TestLineageStatsUpdateRunningMean(t *testing.T) {
	var s LineageStats
	s.Update(Metrics{Lifetime: 10})
	s.Update(Metrics{Lifetime: 20})
	want := (Scalar(Metrics{Lifetime: 10}) + Scalar(Metrics{Lifetime: 20})) / 2
	if s.MeanScalar != want {
		t.Errorf("MeanScalar = %v, want %v", s.MeanScalar, want)
	}
	if s.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", s.SampleCount)
	}
}

func TestLineageStatsTracksBest(t *testing.T) {
	var s LineageStats
	s.Update(Metrics{Lifetime: 5})
	s.Update(Metrics{Lifetime: 50})
	s.Update(Metrics{Lifetime: 1})
	if s.BestMetrics.Lifetime != 50 {
		t.Errorf("BestMetrics.Lifetime = %d, want 50", s.BestMetrics.Lifetime)
	}
}

func TestTrackerRecordAndGet(t *testing.T) {
	tr := NewTracker()
	lineage := ids.NewLineageId()
	tr.Record(lineage, 0, Metrics{Lifetime: 100})
	tr.Record(lineage, 0, Metrics{Lifetime: 200})

	stats, ok := tr.Get(lineage)
	if !ok {
		t.Fatal("expected lineage to be tracked")
	}
	if stats.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", stats.SampleCount)
	}
	if tr.Count() != 1 {
		t.Errorf("Count() = %d, want 1", tr.Count())
	}

	if _, ok := tr.Get(ids.NewLineageId()); ok {
		t.Error("unknown lineage should not be found")
	}
}

func TestTrackerAll(t *testing.T) {
	tr := NewTracker()
	tr.Record(ids.NewLineageId(), 0, Metrics{Lifetime: 1})
	tr.Record(ids.NewLineageId(), 0, Metrics{Lifetime: 2})
	all := tr.All()
	if len(all) != 2 {
		t.Errorf("All() returned %d entries, want 2", len(all))
	}
}
