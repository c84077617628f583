// Package sim runs one island: a grid, a population of WASM-compiled
// organisms, and the per-tick schedule that charges energy, executes
// genomes, and resolves their enqueued actions against shared state.
package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/fitness"
	"github.com/evosim/evo-wasm/geo"
	"github.com/evosim/evo-wasm/grid"
	"github.com/evosim/evo-wasm/ids"
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/log"
	"github.com/evosim/evo-wasm/metrics"
	"github.com/evosim/evo-wasm/organism"
	"github.com/evosim/evo-wasm/stats"
	"github.com/evosim/evo-wasm/wasmcompile"
	"github.com/evosim/evo-wasm/wasmrun"
)

var Logger = log.Null()

const telemetryIntervalTicks = 1000

// Result is what Run returns: the per-lineage fitness statistics
// gathered across the run, the organisms still alive at the end, and
// bookkeeping for the job record.
type Result struct {
	LineageStats []fitness.LineageStats
	Survivors    []*organism.Organism
	TotalTicks   int64
}

// Simulation owns every piece of mutable state for one island: the
// grid, the live organism table, its position index, and the
// deterministic RNG every tick draws from.
type Simulation struct {
	grid      *grid.Grid
	organisms map[ids.OrganismId]*organism.Organism
	positions map[geo.Position]ids.OrganismId

	runtime  *wasmrun.Runtime
	mutator  *ir.Mutator
	tracker  *fitness.Tracker
	cfg      config.JobConfig
	rng      *rand.Rand
	tick     int64
	deaths   []*organism.Organism

	populationAvg stats.MovingAvg

	jobID   ids.JobId
	metrics *metrics.Metrics
}

// WithTelemetry attaches a job id and a metrics sink so Run reports
// per-tick and per-interval samples under that job's label. Telemetry
// stays off when m is nil, which is the case in tests and ad-hoc runs
// that have no coordinator-assigned job id.
func (s *Simulation) WithTelemetry(jobID ids.JobId, m *metrics.Metrics) *Simulation {
	s.jobID = jobID
	s.metrics = m
	return s
}

// SeedGenome pairs a genome with the lineage it belongs to, as handed
// to NewSimulation by the coordinator.
type SeedGenome struct {
	LineageID  ids.LineageId
	Generation int
	Program    *ir.Program
}

// NewSimulation builds a fresh island: seeds the RNG, builds the
// grid, and places each seed genome on a random non-obstacle, empty
// tile.
func NewSimulation(cfg config.JobConfig, seeds []SeedGenome) (*Simulation, error) {
	rng := rand.New(rand.NewSource(cfg.Job.Seed))

	g := grid.NewGrid(grid.Config{
		Width: cfg.World.Width, Height: cfg.World.Height,
		ObstacleDensity: cfg.World.ObstacleDensity,
		HazardDensity:   cfg.World.HazardDensity,
		ResourceDensity: cfg.World.ResourceDensity,
		MaxResource:     cfg.World.MaxResourcePerTile,
		InitialResource: cfg.World.MaxResourcePerTile / 2,
	}, rng)

	s := &Simulation{
		grid:      g,
		organisms: make(map[ids.OrganismId]*organism.Organism),
		positions: make(map[geo.Position]ids.OrganismId),
		runtime:   wasmrun.NewRuntime(wasmrun.Config{MaxFuelPerStep: cfg.Execution.MaxFuelPerStep, MaxMemoryBytes: cfg.Execution.MaxMemoryBytes}),
		mutator:   ir.NewMutator(ir.DefaultMutatorConfig()),
		tracker:   fitness.NewTracker(),
		cfg:       cfg,
		rng:       rng,
	}
	s.populationAvg.Duration = time.Minute

	for _, seed := range seeds {
		pos, ok := s.findSpawnTile()
		if !ok {
			return nil, evoerr.New(evoerr.Other, "sim.NewSimulation", fmt.Errorf("no empty non-obstacle tile found for lineage %s", seed.LineageID))
		}
		id := ids.NewOrganismId()
		o := organism.New(id, seed.LineageID, pos, cfg.Energy.InitialEnergy, 0, seed.Program, seed.Generation)
		s.organisms[id] = o
		s.positions[pos] = id
	}
	return s, nil
}

// orderedOrganismIDs returns every live organism id sorted by its
// string form, giving every map-keyed-by-id loop a stable starting
// order before any further (seeded) randomization is applied — map
// iteration order is randomized per process and would otherwise leak
// into the tick schedule and make runs non-reproducible.
func (s *Simulation) orderedOrganismIDs() []ids.OrganismId {
	out := make([]ids.OrganismId, 0, len(s.organisms))
	for id := range s.organisms {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (s *Simulation) findSpawnTile() (geo.Position, bool) {
	w, h := s.grid.Extents()
	for attempt := 0; attempt < 100; attempt++ {
		p := geo.Position{X: s.rng.Intn(w), Y: s.rng.Intn(h)}
		if !s.grid.Get(p).IsPassable() {
			continue
		}
		if _, occupied := s.positions[p]; occupied {
			continue
		}
		return p, true
	}
	return geo.Position{}, false
}

// Run advances the simulation for cfg.Job.NumTicks ticks and returns
// the aggregated result.
func (s *Simulation) Run() Result {
	for ; s.tick < s.cfg.Job.NumTicks; s.tick++ {
		s.step()
	}
	order := s.orderedOrganismIDs()
	for _, id := range order {
		o := s.organisms[id]
		s.tracker.Record(o.LineageID, o.Generation, fitness.FromOrganism(o))
	}
	survivors := make([]*organism.Organism, 0, len(order))
	for _, id := range order {
		survivors = append(survivors, s.organisms[id])
	}
	return Result{
		LineageStats: s.tracker.All(),
		Survivors:    survivors,
		TotalTicks:   s.tick,
	}
}

func (s *Simulation) step() {
	s.grid.RegenerateResources(s.cfg.World.ResourceRegenRate)

	schedule := s.orderedOrganismIDs()
	s.rng.Shuffle(len(schedule), func(i, j int) { schedule[i], schedule[j] = schedule[j], schedule[i] })

	for _, id := range schedule {
		o, alive := s.organisms[id]
		if !alive {
			continue // reaped by an action earlier this same tick (e.g. killed in combat)
		}
		s.processOrganism(o)
	}

	s.hazardPass()
	s.reap()

	s.populationAvg.Add(float64(len(s.organisms)))
	s.recordTelemetry()
}

// recordTelemetry is a no-op when no metrics sink is attached.
// evo_ticks_total counts every tick; evo_population is sampled on the
// same interval as the checkpoint log line, since a Set() every tick
// would be wasted precision for a gauge operators only poll
// periodically.
func (s *Simulation) recordTelemetry() {
	if s.metrics != nil {
		s.metrics.TicksTotal.WithLabelValues(s.jobID.String()).Inc()
	}
	if s.tick%telemetryIntervalTicks != 0 {
		return
	}
	if s.metrics != nil {
		s.metrics.Population.WithLabelValues(s.jobID.String()).Set(float64(len(s.organisms)))
	}
	if s.cfg.Server.CheckpointIntervalSec > 0 {
		Logger.Printf("sim: tick=%d population=%d population_1m_avg=%.1f\n", s.tick, len(s.organisms), s.populationAvg.Value())
	}
}

func (s *Simulation) processOrganism(o *organism.Organism) {
	adj, _ := o.AddEnergy(-s.cfg.Energy.BasalCost)
	o.Metrics.NetEnergyGained += int64(adj)
	if o.Energy() <= 0 {
		return
	}
	o.Age++
	o.Metrics.Lifetime = o.Age

	if !o.HasInstance() {
		if err := s.compileAndInit(o); err != nil {
			Logger.Printf("sim: organism %s failed to compile, skipping forever: %v\n", o.ID, err)
			return
		}
	}

	inst := o.Instance()
	inst.UpdateSensors(wasmrun.SensorData{
		Energy: int32(o.Energy()), Age: int32(o.Age), Position: o.Position,
	})

	result, err := inst.Step(0)
	if err != nil && evoerr.KindOf(err) != evoerr.ResourceExhausted {
		Logger.Printf("sim: organism %s step failed: %v\n", o.ID, err)
		return
	}
	ranOutOfFuel := err != nil
	if ranOutOfFuel {
		Logger.Printf("sim: organism %s ran out of fuel, skipping actions this tick\n", o.ID)
	}

	instructionCost := int((float64(result.FuelConsumed) / 1000) * s.cfg.Energy.InstructionCostPerK)
	adj, _ = o.AddEnergy(-instructionCost)
	o.Metrics.NetEnergyGained += int64(adj)
	if o.Energy() <= 0 {
		return
	}
	if ranOutOfFuel {
		return
	}

	for _, action := range result.Actions {
		s.applyAction(o, action)
		if o.Energy() <= 0 {
			break
		}
	}
}

func (s *Simulation) compileAndInit(o *organism.Organism) error {
	wasmBytes, err := wasmcompile.Compile(o.Genome, wasmcompile.DefaultConfig())
	if err != nil {
		return err
	}
	ctx := wasmrun.NewOrganismContext(o.ID, wasmrun.SensorData{
		Energy: int32(o.Energy()), Age: int32(o.Age), Position: o.Position,
	}, func(x, y int32) int32 {
		return int32(s.grid.Get(geo.Position{X: int(x), Y: int(y)}).Kind)
	})
	inst, err := s.runtime.Instantiate(wasmBytes, ctx)
	if err != nil {
		return err
	}
	if err := inst.Init(s.rng.Int63()); err != nil {
		return err
	}
	o.SetInstance(inst)
	return nil
}

func (s *Simulation) applyAction(o *organism.Organism, a wasmrun.Action) {
	switch a.Kind {
	case wasmrun.ActionMove:
		s.applyMove(o, a)
	case wasmrun.ActionEat:
		s.applyEat(o)
	case wasmrun.ActionAttack:
		s.applyAttack(o, a)
	case wasmrun.ActionReproduce:
		s.applyReproduce(o)
	case wasmrun.ActionEmitSignal:
		Logger.Printf("sim: organism %s emitted signal channel=%d value=%d\n", o.ID, a.Channel, a.Value)
	}
}

func (s *Simulation) applyMove(o *organism.Organism, a wasmrun.Action) {
	if o.Energy() < s.cfg.Energy.MoveCost {
		return
	}
	target := o.Position.Add(int(a.DX), int(a.DY)).Wrap(s.grid.Extents())
	if !s.grid.Get(target).IsPassable() {
		return
	}
	if _, occupied := s.positions[target]; occupied {
		return
	}
	delete(s.positions, o.Position)
	s.positions[target] = o.ID
	o.VisitPosition(target)
	adj, _ := o.AddEnergy(-s.cfg.Energy.MoveCost)
	o.Metrics.NetEnergyGained += int64(adj)
}

func (s *Simulation) applyEat(o *organism.Organism) {
	t := s.grid.Get(o.Position)
	if t.Kind != grid.Resource || t.ResourceAmount <= 0 {
		return
	}
	consumed := t.ResourceAmount
	if consumed > 100 {
		consumed = 100
	}
	t.ResourceAmount -= consumed
	s.grid.Set(o.Position, t)
	gained := int(float64(consumed) * s.cfg.Energy.EatEfficiency)
	adj, _ := o.AddEnergy(gained)
	o.Metrics.NetEnergyGained += int64(adj)
	o.Metrics.TimesEaten++
}

func (s *Simulation) applyAttack(o *organism.Organism, a wasmrun.Action) {
	if !s.cfg.DynamicRules.AllowCombat {
		return
	}
	if o.Energy() < s.cfg.Energy.AttackCost {
		return
	}
	adj, _ := o.AddEnergy(-s.cfg.Energy.AttackCost)
	o.Metrics.NetEnergyGained += int64(adj)

	for _, d := range geo.Direction {
		np := o.Position.Add(d.DX, d.DY).Wrap(s.grid.Extents())
		victimID, ok := s.positions[np]
		if !ok {
			continue
		}
		victim := s.organisms[victimID]
		lost, _ := victim.AddEnergy(-int(a.Amount))
		victim.Metrics.NetEnergyGained += int64(lost)
		victim.Metrics.DamageReceived += int(a.Amount)
		o.Metrics.DamageDealt += int(a.Amount)
		if victim.Energy() <= 0 {
			o.Metrics.Kills++
		}
		return
	}
}

func (s *Simulation) applyReproduce(o *organism.Organism) {
	o.Metrics.ReproductionAttempts++
	if !s.cfg.DynamicRules.AllowReproduction {
		return
	}
	if o.Energy() < s.cfg.Energy.ReproduceCost || o.Energy() < s.cfg.Energy.MinReproduceEnergy {
		return
	}
	if len(s.organisms) >= s.cfg.DynamicRules.MaxPopulation {
		return
	}

	var spawnAt geo.Position
	found := false
	for _, d := range geo.Direction {
		np := o.Position.Add(d.DX, d.DY).Wrap(s.grid.Extents())
		if !s.grid.Get(np).IsPassable() {
			continue
		}
		if _, occupied := s.positions[np]; occupied {
			continue
		}
		spawnAt = np
		found = true
		break
	}
	if !found {
		return
	}

	adj, _ := o.AddEnergy(-s.cfg.Energy.ReproduceCost)
	o.Metrics.NetEnergyGained += int64(adj)

	childGenome := s.mutator.Mutate(s.rng, o.Genome)
	childID := ids.NewOrganismId()
	child := organism.New(childID, o.LineageID, spawnAt, s.cfg.Energy.InitialEnergy/2, s.tick, childGenome, o.Generation)
	s.organisms[childID] = child
	s.positions[spawnAt] = childID

	o.Metrics.OffspringCount++
	o.Metrics.ReproductionSuccesses++
}

func (s *Simulation) hazardPass() {
	for _, id := range s.orderedOrganismIDs() {
		o := s.organisms[id]
		if s.grid.Get(o.Position).Kind == grid.Hazard {
			adj, _ := o.AddEnergy(-s.cfg.World.HazardDamage)
			o.Metrics.NetEnergyGained += int64(adj)
		}
	}
}

func (s *Simulation) reap() {
	for _, id := range s.orderedOrganismIDs() {
		o := s.organisms[id]
		if o.Alive() {
			continue
		}
		s.tracker.Record(o.LineageID, o.Generation, fitness.FromOrganism(o))
		delete(s.positions, o.Position)
		delete(s.organisms, id)
		s.deaths = append(s.deaths, o)
	}
}
