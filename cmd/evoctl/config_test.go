package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evosim/evo-wasm/config"
)

func TestLoadConfigEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.World != config.Default().World || cfg.Server != config.Default().Server {
		t.Error("loadConfig(\"\") should return config.Default()")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("world:\n  width: 128\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.World.Width != 128 {
		t.Errorf("World.Width = %d, want 128", cfg.World.Width)
	}
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loadConfig should error on a missing file")
	}
}
