// Package organism describes a living occupant of the grid: its
// energy, position, genome, and the compiled instance that drives it,
// adapted from the older grid2d organism's energy/lifecycle pairing to
// a WASM-compiled genome instead of a fixed-opcode interpreter.
package organism

import (
	"fmt"

	"github.com/evosim/evo-wasm/energy"
	"github.com/evosim/evo-wasm/geo"
	"github.com/evosim/evo-wasm/ids"
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/wasmrun"
)

// Metrics accumulates the per-organism totals the fitness formula and
// lineage stats are computed from.
type Metrics struct {
	Lifetime              int64
	NetEnergyGained       int64
	OffspringCount        int
	TilesExplored         int
	Kills                 int
	TimesEaten            int
	DamageDealt           int
	DamageReceived        int
	ReproductionAttempts  int
	ReproductionSuccesses int
}

// Organism is one living occupant of the grid.
type Organism struct {
	energy.Store

	ID          ids.OrganismId
	LineageID   ids.LineageId
	Position    geo.Position
	Age         int64
	BirthTick   int64
	Genome      *ir.Program
	Generation  int

	Metrics      Metrics
	visitedTiles map[geo.Position]struct{}

	instance *wasmrun.Instance
}

func New(id ids.OrganismId, lineage ids.LineageId, pos geo.Position, initialEnergy int, birthTick int64, genome *ir.Program, generation int) *Organism {
	o := &Organism{
		ID: id, LineageID: lineage, Position: pos,
		BirthTick: birthTick, Genome: genome, Generation: generation,
		visitedTiles: make(map[geo.Position]struct{}),
	}
	o.Store.Reset(initialEnergy)
	o.visitedTiles[pos] = struct{}{}
	return o
}

func (o *Organism) String() string {
	return fmt.Sprintf("[organism %s e=%d age=%d]", o.ID, o.Energy(), o.Age)
}

// HasInstance reports whether the genome has already been compiled
// and instantiated for this organism.
func (o *Organism) HasInstance() bool { return o.instance != nil }

// SetInstance attaches a compiled runtime instance; called exactly
// once, the first tick the organism is scheduled.
func (o *Organism) SetInstance(in *wasmrun.Instance) { o.instance = in }

func (o *Organism) Instance() *wasmrun.Instance { return o.instance }

// VisitPosition records a tile as visited for the tiles_explored
// metric, moving the organism's logical position.
func (o *Organism) VisitPosition(p geo.Position) {
	o.Position = p
	if _, seen := o.visitedTiles[p]; !seen {
		o.visitedTiles[p] = struct{}{}
		o.Metrics.TilesExplored++
	}
}

// Alive reports whether the organism still holds positive energy.
func (o *Organism) Alive() bool { return o.Energy() > 0 }
