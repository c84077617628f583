package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/metrics"
	"github.com/evosim/evo-wasm/workerclient"
)

func workCmd(configPath *string) *cobra.Command {
	var serverURL string
	var workerID string
	var pollIntervalMs int

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run a worker: poll a coordinator, execute islands, submit results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			workerCfg := cfg.Worker
			if cmd.Flags().Changed("server") {
				workerCfg.ServerURL = serverURL
			}
			if cmd.Flags().Changed("worker-id") {
				workerCfg.WorkerID = workerID
			}
			if cmd.Flags().Changed("poll-interval-ms") {
				workerCfg.PollIntervalMs = pollIntervalMs
			}
			if workerCfg.ServerURL == "" {
				return errRequiredFlag("--server")
			}
			if workerCfg.WorkerID == "" {
				host, _ := os.Hostname()
				workerCfg.WorkerID = host
			}
			return runWork(workerCfg)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "coordinator base URL, e.g. http://localhost:8080")
	cmd.Flags().StringVar(&workerID, "worker-id", "", "override worker.worker_id (defaults to hostname)")
	cmd.Flags().IntVar(&pollIntervalMs, "poll-interval-ms", 0, "override worker.poll_interval_ms")
	return cmd
}

func runWork(cfg config.Worker) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("evoctl work: polling %s as %s\n", cfg.ServerURL, cfg.WorkerID)
	client := workerclient.New(cfg, metrics.New())
	client.Run(ctx)
	return nil
}

type flagError string

func (e flagError) Error() string { return string(e) }

func errRequiredFlag(name string) error {
	return flagError(name + " is required")
}
