// Package fitness scores organisms and tracks incremental running
// statistics per lineage, grounded on the same mutex-guarded, in-memory
// bookkeeping style as the census package's MemCensus.
package fitness

import (
	"sync"

	"github.com/evosim/evo-wasm/ids"
	"github.com/evosim/evo-wasm/organism"
)

// Metrics is the snapshot of one organism's lifetime totals, used both
// to compute scalar fitness and to feed LineageStats.
type Metrics struct {
	Lifetime       int64
	NetEnergy      int64
	OffspringCount int
	TilesExplored  int
	Kills          int
}

func FromOrganism(o *organism.Organism) Metrics {
	return Metrics{
		Lifetime:       o.Age,
		NetEnergy:      o.Metrics.NetEnergyGained,
		OffspringCount: o.Metrics.OffspringCount,
		TilesExplored:  o.Metrics.TilesExplored,
		Kills:          o.Metrics.Kills,
	}
}

// Scalar combines the primary objectives into a single comparable
// fitness value.
func Scalar(m Metrics) float64 {
	netEnergy := m.NetEnergy
	if netEnergy < 0 {
		netEnergy = 0
	}
	return float64(m.Lifetime) +
		0.5*float64(netEnergy) +
		100*float64(m.OffspringCount) +
		0.1*float64(m.TilesExplored) +
		50*float64(m.Kills)
}

// Dominates reports whether a is a classical Pareto improvement over
// b: at least as good on every primary objective and strictly better
// on at least one.
func Dominates(a, b Metrics) bool {
	atLeastAsGood := a.Lifetime >= b.Lifetime &&
		a.NetEnergy >= b.NetEnergy &&
		a.OffspringCount >= b.OffspringCount &&
		a.TilesExplored >= b.TilesExplored
	strictlyBetter := a.Lifetime > b.Lifetime ||
		a.NetEnergy > b.NetEnergy ||
		a.OffspringCount > b.OffspringCount ||
		a.TilesExplored > b.TilesExplored
	return atLeastAsGood && strictlyBetter
}

// LineageStats accumulates running statistics for one lineage across
// every organism it has ever produced.
type LineageStats struct {
	LineageID     ids.LineageId
	Generation    int
	SampleCount   int64
	MeanScalar    float64
	BestScalar    float64
	BestMetrics   Metrics
}

// Update folds one more organism's metrics into the running mean and
// best-seen tracking. It never reorders prior samples, so results are
// identical regardless of the order organisms die within a tick as
// long as the overall death order across the run is fixed.
func (s *LineageStats) Update(m Metrics) {
	scalar := Scalar(m)
	s.SampleCount++
	s.MeanScalar += (scalar - s.MeanScalar) / float64(s.SampleCount)
	if s.SampleCount == 1 || scalar > s.BestScalar {
		s.BestScalar = scalar
		s.BestMetrics = m
	}
}

// Tracker is the process-local, concurrency-safe home for every
// lineage's LineageStats, keyed directly by LineageId.
type Tracker struct {
	mu    sync.RWMutex
	stats map[ids.LineageId]*LineageStats
}

func NewTracker() *Tracker {
	return &Tracker{stats: make(map[ids.LineageId]*LineageStats)}
}

// Record updates (creating if absent) the stats for lineage with m.
func (t *Tracker) Record(lineage ids.LineageId, generation int, m Metrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[lineage]
	if !ok {
		s = &LineageStats{LineageID: lineage, Generation: generation}
		t.stats[lineage] = s
	}
	s.Update(m)
}

// Get returns a copy of the stats for lineage, if known.
func (t *Tracker) Get(lineage ids.LineageId) (LineageStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.stats[lineage]
	if !ok {
		return LineageStats{}, false
	}
	return *s, true
}

// All returns a snapshot of every tracked lineage's stats.
func (t *Tracker) All() []LineageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]LineageStats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	return out
}

// Count returns the number of distinct lineages tracked.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.stats)
}
