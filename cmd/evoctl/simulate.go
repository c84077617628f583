package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/sim"
	"github.com/evosim/evo-wasm/store"
)

func simulateCmd(configPath *string) *cobra.Command {
	var numOrganisms int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a single island locally and print its fitness results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runSimulate(cfg, numOrganisms)
		},
	}
	cmd.Flags().IntVar(&numOrganisms, "organisms", 10, "number of bootstrap genomes to seed the island with")
	return cmd
}

func runSimulate(cfg config.JobConfig, numOrganisms int) error {
	// An empty, in-memory store makes the coordinator bootstrap fresh
	// random genomes for us rather than loading any persisted lineage.
	coordinator := evo.NewCoordinator(store.NewMemStore(), cfg, cfg.Job.Seed)
	wires, err := coordinator.SelectGenomesForJob(numOrganisms)
	if err != nil {
		return fmt.Errorf("seed genomes: %w", err)
	}

	seeds := make([]sim.SeedGenome, 0, len(wires))
	for _, w := range wires {
		program, err := ir.FromBytes(w.Program)
		if err != nil {
			return fmt.Errorf("decode seed genome %s: %w", w.LineageID, err)
		}
		seeds = append(seeds, sim.SeedGenome{LineageID: w.LineageID, Generation: w.Generation, Program: program})
	}

	simulation, err := sim.NewSimulation(cfg, seeds)
	if err != nil {
		return fmt.Errorf("build simulation: %w", err)
	}
	result := simulation.Run()

	fmt.Printf("ticks: %d\n", result.TotalTicks)
	fmt.Printf("survivors: %d\n", len(result.Survivors))
	fmt.Printf("lineages reporting: %d\n", len(result.LineageStats))
	for _, ls := range result.LineageStats {
		fmt.Printf("  lineage %s  gen %d  samples %d  mean %.2f  best %.2f\n",
			ls.LineageID, ls.Generation, ls.SampleCount, ls.MeanScalar, ls.BestScalar)
	}
	return nil
}
