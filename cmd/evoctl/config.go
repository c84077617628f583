package main

import (
	"github.com/evosim/evo-wasm/config"
)

func loadConfig(path string) (config.JobConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
