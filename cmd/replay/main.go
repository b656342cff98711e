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
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/stores"
	"draft-strategy-lab/internal/verification"
)

func main() {
	config.LoadEnvFile(".env")

	// Parse flags
	configPath := flag.String("config", os.Getenv(config.EnvConfigFile), "YAML config file")
	modeFlag := flag.String("mode", "picks,bans", "Comma-separated graph modes to replay")
	sessionID := flag.String("session", "", "Session ID for persisted snapshots (default: replay-<unix ms>)")
	matchFile := flag.String("match-file", "", "JSON match feed (default: config replay.match_file, else fixtures)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default: config / POSTGRES_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before replaying")
	live := flag.Bool("live", false, "Replay one match per interval instead of all at once")
	interval := flag.Duration("interval", 0, "Live replay interval (default: config replay.interval)")
	verify := flag.Bool("verify", false, "Verify determinism and the persisted snapshots after replay")
	verbose := flag.Bool("v", false, "Log every step")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		logger.Fatalf("apply env: %v", err)
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *useMemory {
		cfg.Storage = config.StorageConfig{}
	}
	if *matchFile != "" {
		cfg.Replay.MatchFile = *matchFile
	}
	if *interval > 0 {
		cfg.Replay.Interval = *interval
	}

	modes, err := parseModes(*modeFlag)
	if err != nil {
		logger.Fatal(err)
	}
	if *sessionID == "" {
		*sessionID = fmt.Sprintf("replay-%d", time.Now().UnixMilli())
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Snapshots live next to matches; ClickHouse is not needed here.
	relational := cfg.Storage
	relational.ClickhouseDSN = ""
	st, err := stores.Open(ctx, relational, *migrate)
	if err != nil {
		logger.Fatalf("open stores: %v", err)
	}
	defer st.Close()

	n, err := st.SeedMatches(ctx, cfg.Replay.MatchFile, logger)
	if err != nil {
		logger.Fatalf("seed matches: %v", err)
	}
	logger.Printf("Replaying %d matches (%s storage), session %s", n, st.Relational, *sessionID)

	matches, err := replay.NewRunner(st.Matches).Load(ctx)
	if err != nil {
		logger.Fatalf("load matches: %v", err)
	}

	var summaries []ModeSummary
	for _, mode := range modes {
		opts := []replay.GraphEngineOption{replay.WithSnapshotStore(st.Snapshots)}
		if *verbose || *live {
			opts = append(opts, replay.WithLogger(logger))
		}
		engine := replay.NewGraphEngine(*sessionID, mode, cfg.Graph, opts...)

		start := time.Now()
		if *live {
			seq := replay.NewSequencer(mode, matches, engine, replay.NewTickerScheduler(cfg.Replay.Interval))
			err = seq.Run(ctx)
		} else {
			err = replay.ReplayAll(ctx, mode, matches, engine)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("%s replay failed: %v", mode, err)
		}

		var sum ModeSummary
		engine.View(func(g *graph.StrategyGraph) {
			totals := g.Totals()
			sum = ModeSummary{
				Mode:        mode,
				Matches:     totals.Matches,
				Wins:        totals.Wins,
				Losses:      totals.Losses,
				Duration:    time.Since(start).String(),
				Conclusions: g.Conclude(mode),
			}
		})
		summaries = append(summaries, sum)

		if errors.Is(err, context.Canceled) {
			logger.Printf("%s replay cancelled after %d matches", mode, sum.Matches)
			break
		}
	}

	if *verify && ctx.Err() == nil {
		v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			MatchStore:    st.Matches,
			SnapshotStore: st.Snapshots,
			GraphConfig:   cfg.Graph,
		})
		for i := range summaries {
			mode := summaries[i].Mode
			det, err := v.VerifyDeterminism(ctx, mode)
			if err != nil {
				logger.Fatalf("verify determinism %s: %v", mode, err)
			}
			stored, err := v.VerifySession(ctx, *sessionID, mode)
			if err != nil {
				logger.Fatalf("verify session %s: %v", mode, err)
			}
			summaries[i].Verification = &VerificationSummary{
				Deterministic:     det.OK(),
				SnapshotsMatch:    stored.OK(),
				DivergentSteps:    stored.DivergentSteps,
				InvariantFailures: len(det.Violations) + len(stored.Violations),
			}
		}
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(output))
		return
	}
	for _, s := range summaries {
		printSummary(s)
	}
}

// ModeSummary is the outcome of replaying one mode.
type ModeSummary struct {
	Mode         domain.GraphMode     `json:"mode"`
	Matches      int                  `json:"matches"`
	Wins         int                  `json:"wins"`
	Losses       int                  `json:"losses"`
	Duration     string               `json:"duration"`
	Conclusions  graph.Conclusions    `json:"conclusions"`
	Verification *VerificationSummary `json:"verification,omitempty"`
}

// VerificationSummary condenses the verifier reports of one mode.
type VerificationSummary struct {
	Deterministic     bool `json:"deterministic"`
	SnapshotsMatch    bool `json:"snapshots_match"`
	DivergentSteps    int  `json:"divergent_steps"`
	InvariantFailures int  `json:"invariant_failures"`
}

func parseModes(s string) ([]domain.GraphMode, error) {
	var modes []domain.GraphMode
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := domain.ParseGraphMode(part)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	if len(modes) == 0 {
		return nil, errors.New("--mode must name at least one of picks, bans")
	}
	return modes, nil
}

func printSummary(s ModeSummary) {
	fmt.Printf("\n=== Replay Summary (%s) ===\n", s.Mode)
	fmt.Printf("Matches:           %d\n", s.Matches)
	fmt.Printf("Wins / Losses:     %d / %d\n", s.Wins, s.Losses)
	fmt.Printf("Duration:          %s\n", s.Duration)

	c := s.Conclusions
	fmt.Printf("\nPrimary strategies:\n")
	for i, p := range c.Primary {
		fmt.Printf("  %d. %-22s strength=%.3f win_rate=%.2f games=%d %s\n",
			i+1, p.Label, p.Strength, p.WinRate, p.Games, p.Verdict)
	}
	if c.Lynchpin != nil {
		mark := ""
		if c.Lynchpin.Flagged {
			mark = " (flagged)"
		}
		fmt.Printf("Lynchpin:          %s fragility=%.3f%s\n", c.Lynchpin.Label, c.Lynchpin.Fragility, mark)
	}
	if c.Bait != nil {
		fmt.Printf("Bait strategy:     %s win_rate=%.2f\n", c.Bait.Label, c.Bait.WinRate)
	}
	fmt.Printf("Coach:             %s\n", c.Coach)

	if v := s.Verification; v != nil {
		fmt.Printf("\nDeterministic:     %v\n", v.Deterministic)
		fmt.Printf("Snapshots match:   %v (divergent steps: %d)\n", v.SnapshotsMatch, v.DivergentSteps)
		fmt.Printf("Invariant errors:  %d\n", v.InvariantFailures)
	}
}
