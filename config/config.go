// Package config defines the YAML-loadable configuration surface for
// the world, energy economy, execution limits, and the coordinator and
// worker processes, with the defaults carried forward from the
// original island simulator.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evosim/evo-wasm/evoerr"
)

type World struct {
	Width              int     `yaml:"width"`
	Height             int     `yaml:"height"`
	ResourceDensity    float64 `yaml:"resource_density"`
	MaxResourcePerTile int     `yaml:"max_resource_per_tile"`
	ResourceRegenRate  float64 `yaml:"resource_regen_rate"`
	ObstacleDensity    float64 `yaml:"obstacle_density"`
	HazardDensity      float64 `yaml:"hazard_density"`
	HazardDamage       int     `yaml:"hazard_damage"`
}

type Energy struct {
	InitialEnergy       int     `yaml:"initial_energy"`
	BasalCost           int     `yaml:"basal_cost"`
	InstructionCostPerK float64 `yaml:"instruction_cost_per_k"`
	MoveCost            int     `yaml:"move_cost"`
	AttackCost          int     `yaml:"attack_cost"`
	ReproduceCost       int     `yaml:"reproduce_cost"`
	EatEfficiency       float64 `yaml:"eat_efficiency"`
	MinReproduceEnergy  int     `yaml:"min_reproduce_energy"`
}

type Execution struct {
	MaxFuelPerStep    int32 `yaml:"max_fuel_per_step"`
	MaxMemoryBytes    int   `yaml:"max_memory_bytes"`
	SensorRadius      int   `yaml:"sensor_radius"`
	MaxSignalsPerStep int   `yaml:"max_signals_per_step"`
}

type Job struct {
	NumTicks int64 `yaml:"num_ticks"`
	Seed     int64 `yaml:"seed"`
}

type DynamicRules struct {
	AllowCombat       bool               `yaml:"allow_combat"`
	AllowReproduction bool               `yaml:"allow_reproduction"`
	MutationRate      float64            `yaml:"mutation_rate"`
	MaxPopulation     int                `yaml:"max_population"`
	CustomParams      map[string]float64 `yaml:"custom_params"`
}

type Server struct {
	BindAddress           string `yaml:"bind_address"`
	Port                  int    `yaml:"port"`
	DataDir               string `yaml:"data_dir"`
	CheckpointIntervalSec int    `yaml:"checkpoint_interval_secs"`
}

type Worker struct {
	ServerURL         string `yaml:"server_url"`
	WorkerID          string `yaml:"worker_id"`
	MaxConcurrentJobs int    `yaml:"max_concurrent_jobs"`
	PollIntervalMs    int    `yaml:"poll_interval_ms"`
}

// JobConfig is the full configuration surface for one simulated
// island; it is also the body served at GET /api/config.
type JobConfig struct {
	World        World        `yaml:"world"`
	Energy       Energy       `yaml:"energy"`
	Execution    Execution    `yaml:"execution"`
	Job          Job          `yaml:"job"`
	DynamicRules DynamicRules `yaml:"dynamic_rules"`
	Server       Server       `yaml:"server"`
	Worker       Worker       `yaml:"worker"`
}

// Default returns the configuration baseline every island starts
// from before a YAML file or flags override individual fields.
func Default() JobConfig {
	return JobConfig{
		World: World{
			Width: 256, Height: 256,
			ResourceDensity: 0.3, MaxResourcePerTile: 1000, ResourceRegenRate: 0.15,
			ObstacleDensity: 0.05, HazardDensity: 0.02, HazardDamage: 10,
		},
		Energy: Energy{
			InitialEnergy: 1500, BasalCost: 1, InstructionCostPerK: 1,
			MoveCost: 3, AttackCost: 10, ReproduceCost: 300,
			EatEfficiency: 1.5, MinReproduceEnergy: 400,
		},
		Execution: Execution{
			MaxFuelPerStep: 10000, MaxMemoryBytes: 65536,
			SensorRadius: 3, MaxSignalsPerStep: 5,
		},
		Job: Job{NumTicks: 10000, Seed: 0},
		DynamicRules: DynamicRules{
			AllowCombat: true, AllowReproduction: true,
			MutationRate: 0.01, MaxPopulation: 1000,
		},
		Server: Server{
			BindAddress: "0.0.0.0", Port: 8080,
			DataDir: "./data", CheckpointIntervalSec: 300,
		},
		Worker: Worker{MaxConcurrentJobs: 1, PollIntervalMs: 5000},
	}
}

// Load reads a YAML file over the default configuration; fields
// absent from the file keep their default value.
func Load(path string) (JobConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, evoerr.New(evoerr.Io, "config.Load", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, evoerr.New(evoerr.Validation, "config.Load", err)
	}
	return cfg, nil
}
