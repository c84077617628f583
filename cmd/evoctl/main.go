// Command evoctl is the single entrypoint for running a coordinator,
// running a worker, or driving one island locally from a config file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evosim/evo-wasm/api"
	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/grid"
	"github.com/evosim/evo-wasm/log"
	"github.com/evosim/evo-wasm/sim"
	"github.com/evosim/evo-wasm/wasmcompile"
	"github.com/evosim/evo-wasm/wasmrun"
	"github.com/evosim/evo-wasm/workerclient"
)

func main() {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:   "evoctl",
		Short: "evoctl — distributed evolutionary simulation coordinator and worker",
		Long:  "Runs islands of WASM-compiled organism genomes under selection pressure, either as a standalone simulation, a coordinator serving jobs over HTTP, or a worker executing them.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				return
			}
			l := log.Real()
			sim.Logger = l
			api.Logger = l
			workerclient.Logger = l
			evo.Logger = l
			wasmrun.Logger = l
			wasmcompile.Logger = l
			grid.Logger = l
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults are used for any field it omits)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable logging across the coordinator, worker, and simulation engine")

	root.AddCommand(
		serveCmd(&configPath),
		workCmd(&configPath),
		simulateCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
