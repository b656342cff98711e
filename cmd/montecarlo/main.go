package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"draft-strategy-lab/internal/config"
	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
	"draft-strategy-lab/internal/stores"
)

func main() {
	config.LoadEnvFile(".env")

	// Parse flags
	configPath := flag.String("config", os.Getenv(config.EnvConfigFile), "YAML config file")
	toggleFlag := flag.String("toggles", "", "Comma-separated active toggle IDs for the sampler")
	allScenarios := flag.Bool("all-scenarios", false, "Run the baseline and one scenario per toggle")
	trials := flag.Int("trials", 0, "Sampler trials (default: config sampler.trials)")
	seed := flag.Int64("seed", 0, "Sampler seed (default: config sampler.seed)")
	skipRollout := flag.Bool("skip-rollout", false, "Skip the transition-graph robustness sweep")
	runs := flag.Int("runs", 0, "Rollout walks per denial (default: config rollout.runs)")
	denyFlag := flag.String("deny", "", "Comma-separated nodes for the robustness sweep (default: all flow states)")
	dataDir := flag.String("data-dir", "", "Analysis document directory (default: config data_dir, else mock)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (default: config / CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before persisting")
	noPersist := flag.Bool("no-persist", false, "Do not persist runs")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[montecarlo] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		logger.Fatalf("apply env: %v", err)
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *useMemory {
		cfg.Storage = config.StorageConfig{}
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *trials > 0 {
		cfg.Sampler.Trials = *trials
	}
	if *seed != 0 {
		cfg.Sampler.Seed = *seed
	}
	if *runs > 0 {
		cfg.Rollout.Runs = *runs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	sampler, err := simulation.NewSampler(cfg.Sampler, cfg.Toggles)
	if err != nil {
		logger.Fatalf("create sampler: %v", err)
	}

	var sets [][]string
	if *allScenarios {
		sets = append(sets, nil)
		for _, t := range sampler.Toggles() {
			sets = append(sets, []string{t.ID})
		}
	} else {
		sets = append(sets, splitList(*toggleFlag))
	}

	out := Output{Seed: cfg.Sampler.Seed}
	createdAt := time.Now().UnixMilli()

	logger.Printf("Sampling %d scenario(s), %d trials each", len(sets), cfg.Sampler.Trials)
	for _, active := range sets {
		res, err := sampler.Run(ctx, active)
		if err != nil {
			logger.Fatalf("sampler %v: %v", active, err)
		}
		out.Scenarios = append(out.Scenarios, res)
		out.Runs = append(out.Runs, simulation.SamplerRun(res, cfg.Sampler.Seed, createdAt))
	}

	if !*skipRollout {
		bundle := datasource.NewLoader(cfg.DataDir).WithLogger(logger).Load()
		out.Source = bundle.Source

		deny := simulation.DefaultDenySet
		if *denyFlag != "" {
			deny = splitList(*denyFlag)
		}

		g, err := bundle.WinGraph.TransitionGraph()
		if err != nil {
			logger.Fatalf("transition graph: %v", err)
		}
		walker, err := simulation.NewWalker(g, cfg.Rollout)
		if err != nil {
			logger.Fatalf("create walker: %v", err)
		}

		logger.Printf("Rollout sweep: %d walks, %d denials (%s data)", cfg.Rollout.Runs, len(deny), bundle.Source)
		report, err := walker.Robustness(ctx, deny)
		if err != nil {
			logger.Fatalf("robustness: %v", err)
		}
		out.Robustness = report
		out.Lynchpins = simulation.Lynchpins(report)
		out.Runs = append(out.Runs, simulation.RolloutRun(report.Baseline, cfg.Rollout.Seed, createdAt))
	}

	if !*noPersist {
		st, err := stores.Open(ctx, config.StorageConfig{ClickhouseDSN: cfg.Storage.ClickhouseDSN}, *migrate)
		if err != nil {
			logger.Fatalf("open stores: %v", err)
		}
		defer st.Close()

		for _, run := range out.Runs {
			err := st.Runs.Insert(ctx, run)
			switch {
			case err == nil:
				out.Persisted++
			case errors.Is(err, storage.ErrDuplicateKey):
				// already persisted
			default:
				logger.Printf("persist %s run %s: %v", run.Kind, run.RunID, err)
			}
		}
		logger.Printf("Persisted %d/%d runs (%s storage)", out.Persisted, len(out.Runs), st.Analytics)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return
	}
	printOutput(out)
}

// Output is everything one invocation computed.
type Output struct {
	Seed       int64                    `json:"seed"`
	Scenarios  []*domain.SamplerResult  `json:"scenarios"`
	Source     string                   `json:"source,omitempty"`
	Robustness *domain.RobustnessReport `json:"robustness,omitempty"`
	Lynchpins  []string                 `json:"lynchpins,omitempty"`
	Runs       []*domain.SimulationRun  `json:"runs"`
	Persisted  int                      `json:"persisted"`
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printOutput(out Output) {
	fmt.Printf("\n=== Outcome Sampler (seed %d) ===\n", out.Seed)
	fmt.Printf("%-32s %8s %8s %8s %10s %-8s %s\n", "Toggles", "P(win)", "WinRate", "Mean", "Stddev", "Vol", "Label")
	for _, r := range out.Scenarios {
		name := "baseline"
		if len(r.ActiveToggles) > 0 {
			name = strings.Join(r.ActiveToggles, "+")
		}
		fmt.Printf("%-32s %8.2f %8.3f %8.1f %10.2f %-8s %s\n",
			name, r.EffectiveProbability, r.WinRate, r.MeanDuration, r.DurationStddev, r.Volatility, r.Label)
	}

	if rep := out.Robustness; rep != nil {
		fmt.Printf("\n=== Rollout Robustness (%s data) ===\n", out.Source)
		fmt.Printf("Baseline success:  %.3f over %d walks\n", rep.Baseline.SuccessRate, rep.Baseline.Runs)
		fmt.Printf("%-22s %10s %10s\n", "Denied", "Success", "Robust")
		for _, row := range rep.Rows {
			fmt.Printf("%-22s %10.3f %10.3f\n", row.Deny, row.SuccessRate, row.Robustness)
		}
		if len(out.Lynchpins) > 0 {
			fmt.Printf("Lynchpins:         %s\n", strings.Join(out.Lynchpins, ", "))
		} else {
			fmt.Printf("Lynchpins:         none\n")
		}
	}

	if len(out.Runs) > 0 {
		fmt.Printf("\nRuns:\n")
		for _, run := range out.Runs {
			fmt.Printf("  %-8s %s %s\n", run.Kind, run.RunID, run.Params)
		}
	}
}
