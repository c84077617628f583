package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/evosim/evo-wasm/api"
	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/metrics"
	"github.com/evosim/evo-wasm/store"
)

const jobLeaseTimeout = 5 * time.Minute
const checkpointsToKeep = 10

func serveCmd(configPath *string) *cobra.Command {
	var bindAddress string
	var port int
	var dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator: job queueing, selection, and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind-address") {
				cfg.Server.BindAddress = bindAddress
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.Server.DataDir = dataDir
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&bindAddress, "bind-address", "", "override server.bind_address")
	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override server.data_dir")
	return cmd
}

func runServe(cfg config.JobConfig) error {
	if err := os.MkdirAll(cfg.Server.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.NewFileStore(filepath.Join(cfg.Server.DataDir, "evo.gob"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	coordinator := evo.NewCoordinator(st, cfg, cfg.Job.Seed)
	jobManager := api.NewJobManager(coordinator)
	m := metrics.New()
	server := api.NewServer(jobManager, coordinator, m)

	go checkpointLoop(st, jobManager, time.Duration(cfg.Server.CheckpointIntervalSec)*time.Second)
	go timeoutLoop(jobManager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	log.Printf("evoctl serve: listening on %s, data dir %s\n", addr, cfg.Server.DataDir)
	return http.ListenAndServe(addr, server.Handler())
}

func checkpointLoop(st store.Store, jm *api.JobManager, interval time.Duration) {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		stats, err := jm.Stats()
		if err != nil {
			log.Printf("evoctl serve: checkpoint stats failed: %v\n", err)
			continue
		}
		rec := store.CheckpointRecord{
			Timestamp:        time.Now().Unix(),
			NumJobsCreated:   stats.TotalJobs,
			NumJobsCompleted: stats.CompletedJobs,
		}
		if err := st.AppendCheckpoint(rec); err != nil {
			log.Printf("evoctl serve: checkpoint append failed: %v\n", err)
			continue
		}
		if err := st.PruneCheckpoints(checkpointsToKeep); err != nil {
			log.Printf("evoctl serve: checkpoint prune failed: %v\n", err)
		}
	}
}

func timeoutLoop(jm *api.JobManager) {
	ticker := time.NewTicker(jobLeaseTimeout / 2)
	defer ticker.Stop()
	for range ticker.C {
		jm.CheckTimeouts(jobLeaseTimeout)
	}
}
