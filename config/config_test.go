package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	yaml := "world:\n  width: 64\nenergy:\n  initial_energy: 999\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := Default()
	if cfg.World.Width != 64 {
		t.Errorf("World.Width = %d, want 64", cfg.World.Width)
	}
	if cfg.Energy.InitialEnergy != 999 {
		t.Errorf("Energy.InitialEnergy = %d, want 999", cfg.Energy.InitialEnergy)
	}
	if cfg.World.Height != def.World.Height {
		t.Errorf("World.Height = %d, want default %d (unset field should keep default)", cfg.World.Height, def.World.Height)
	}
	if cfg.Execution.MaxFuelPerStep != def.Execution.MaxFuelPerStep {
		t.Errorf("Execution.MaxFuelPerStep = %d, want default %d", cfg.Execution.MaxFuelPerStep, def.Execution.MaxFuelPerStep)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should error on a missing file")
	}
}

func TestLoadInvalidYamlErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should error on malformed YAML")
	}
}

func TestDefaultIsInternallyConsistent(t *testing.T) {
	d := Default()
	if d.World.Width <= 0 || d.World.Height <= 0 {
		t.Error("Default world dimensions must be positive")
	}
	if d.Job.NumTicks <= 0 {
		t.Error("Default job.num_ticks must be positive")
	}
	if d.Server.CheckpointIntervalSec <= 0 {
		t.Error("Default server.checkpoint_interval_secs must be positive")
	}
}
