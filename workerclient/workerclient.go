// Package workerclient implements the poll-execute-submit loop a
// worker process runs against a coordinator's HTTP API.
package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/evosim/evo-wasm/config"
	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/log"
	"github.com/evosim/evo-wasm/metrics"
	"github.com/evosim/evo-wasm/sim"
)

var Logger = log.Null()

// Client polls a coordinator for work and submits results, backing
// off exponentially on network failure and retrying a failed result
// submission up to 10 times before logging it as lost.
type Client struct {
	httpClient *http.Client
	cfg        config.Worker
	metrics    *metrics.Metrics
}

func New(cfg config.Worker, m *metrics.Metrics) *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}, cfg: cfg, metrics: m}
}

// Run polls until ctx is canceled. A 404 or any other non-2xx response
// to a job request is treated as "no job available", not an error,
// matching the coordinator's convention.
func (c *Client) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.PollIntervalMs) * time.Millisecond
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok, err := c.requestJob()
		if err != nil {
			Logger.Printf("workerclient: request failed: %v\n", err)
			sleep(ctx, backoff)
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = interval
		if !ok {
			sleep(ctx, interval)
			continue
		}

		result := c.execute(job)
		c.submitWithRetry(ctx, result)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func nextBackoff(d time.Duration) time.Duration {
	const max = 2 * time.Minute
	d *= 2
	if d > max {
		return max
	}
	return d
}

func (c *Client) requestJob() (evo.IslandJob, bool, error) {
	body, _ := json.Marshal(map[string]string{"worker_id": c.cfg.WorkerID})
	resp, err := c.httpClient.Post(c.cfg.ServerURL+"/api/jobs/request", "application/json", bytes.NewReader(body))
	if err != nil {
		return evo.IslandJob{}, false, evoerr.New(evoerr.Network, "workerclient.requestJob", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return evo.IslandJob{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		Logger.Printf("workerclient: unexpected status %d requesting job, treating as no work\n", resp.StatusCode)
		return evo.IslandJob{}, false, nil
	}

	var job evo.IslandJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return evo.IslandJob{}, false, evoerr.New(evoerr.Serialization, "workerclient.requestJob", err)
	}
	return job, true, nil
}

// execute runs one island locally through the simulation engine.
func (c *Client) execute(job evo.IslandJob) evo.IslandResult {
	seeds := make([]sim.SeedGenome, 0, len(job.Genomes))
	for _, g := range job.Genomes {
		program, err := ir.FromBytes(g.Program)
		if err != nil {
			Logger.Printf("workerclient: dropping unparseable genome for lineage %s: %v\n", g.LineageID, err)
			continue
		}
		seeds = append(seeds, sim.SeedGenome{LineageID: g.LineageID, Generation: g.Generation, Program: program})
	}

	simulation, err := sim.NewSimulation(job.Config, seeds)
	if err != nil {
		Logger.Printf("workerclient: failed to build simulation for job %s: %v\n", job.JobID, err)
		return evo.IslandResult{JobID: job.JobID}
	}
	simulation.WithTelemetry(job.JobID, c.metrics)

	start := time.Now()
	result := simulation.Run()
	if c.metrics != nil {
		c.metrics.JobDuration.Observe(time.Since(start).Seconds())
	}

	survivors := make([]evo.SeedGenomeWire, 0, len(result.Survivors))
	for _, o := range result.Survivors {
		encoded, err := ir.ToBytes(o.Genome)
		if err != nil {
			continue
		}
		survivors = append(survivors, evo.SeedGenomeWire{LineageID: o.LineageID, Generation: o.Generation, Program: encoded})
	}

	return evo.IslandResult{
		JobID:        job.JobID,
		LineageStats: result.LineageStats,
		Survivors:    survivors,
		TotalTicks:   result.TotalTicks,
	}
}

func (c *Client) submitWithRetry(ctx context.Context, result evo.IslandResult) {
	backoff := time.Second
	for attempt := 0; attempt < 10; attempt++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := c.submit(result); err != nil {
			Logger.Printf("workerclient: submit attempt %d for job %s failed: %v\n", attempt, result.JobID, err)
			sleep(ctx, backoff)
			backoff = nextBackoff(backoff)
			continue
		}
		return
	}
	Logger.Printf("workerclient: giving up on submitting result for job %s after repeated failures\n", result.JobID)
}

func (c *Client) submit(result evo.IslandResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return evoerr.New(evoerr.Serialization, "workerclient.submit", err)
	}
	resp, err := c.httpClient.Post(c.cfg.ServerURL+"/api/jobs/submit", "application/json", bytes.NewReader(body))
	if err != nil {
		return evoerr.New(evoerr.Network, "workerclient.submit", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return evoerr.New(evoerr.Network, "workerclient.submit", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
