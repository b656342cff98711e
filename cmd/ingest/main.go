package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"draft-strategy-lab/internal/config"
	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/pipeline"
	"draft-strategy-lab/internal/storage"
	"draft-strategy-lab/internal/stores"
)

// Stats counts the outcome of one ingestion pass.
type Stats struct {
	Files      int
	Inserted   int
	Duplicates int
	Ignored    int
}

func main() {
	config.LoadEnvFile(".env")

	// Parse flags
	configPath := flag.String("config", os.Getenv(config.EnvConfigFile), "YAML config file")
	files := flag.String("files", "", "Comma-separated JSON match feeds (default: config replay.match_file)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default: config / POSTGRES_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", true, "Apply embedded migrations first")
	watch := flag.Duration("watch", 0, "Re-read the feeds at this interval (0 ingests once)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

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
		cfg.Storage.PostgresDSN = ""
	}

	paths := splitList(*files)
	if len(paths) == 0 && cfg.Replay.MatchFile != "" {
		paths = []string{cfg.Replay.MatchFile}
	}
	if len(paths) == 0 {
		logger.Fatal("No match feeds specified. Use --files or replay.match_file")
	}
	if cfg.Storage.PostgresDSN == "" {
		logger.Println("Warning: no PostgreSQL DSN; ingested matches live only in memory")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
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

	relational := cfg.Storage
	relational.ClickhouseDSN = ""
	st, err := stores.Open(ctx, relational, *migrate)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer st.Close()

	for {
		stats, err := ingest(ctx, st.Matches, paths, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("Ingestion failed: %v", err)
		}
		logger.Printf("Ingested %d files: %d new, %d duplicates, %d ignored entries",
			stats.Files, stats.Inserted, stats.Duplicates, stats.Ignored)

		if stats.Inserted > 0 {
			reportQuality(ctx, st, cfg, logger)
		}

		if *watch <= 0 || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(*watch):
		}
		if ctx.Err() != nil {
			break
		}
	}

	logger.Println("Shutdown complete")
}

// ingest appends every match of paths that the store does not hold yet.
// Matches are append-only, so a re-read feed only adds new ids.
func ingest(ctx context.Context, store storage.MatchStore, paths []string, logger *log.Logger) (Stats, error) {
	var stats Stats
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		matches, ignored, err := datasource.LoadMatchFile(path)
		if err != nil {
			return stats, err
		}
		stats.Files++
		stats.Ignored += len(ignored)
		for _, ig := range ignored {
			logger.Printf("%s: ignored %s (%s)", ig.File, ig.Entry, ig.Reason)
		}

		for _, m := range matches {
			start := time.Now()
			err := store.Insert(ctx, m)
			observability.RecordDBQuery("matches", "insert", time.Since(start).Seconds(), err)
			switch {
			case err == nil:
				stats.Inserted++
			case errors.Is(err, storage.ErrDuplicateKey):
				stats.Duplicates++
			default:
				return stats, fmt.Errorf("insert match %d from %s: %w", m.ID, path, err)
			}
		}
	}
	return stats, nil
}

// reportQuality logs failing sufficiency checks for the stored feed.
func reportQuality(ctx context.Context, st *stores.Set, cfg config.Config, logger *log.Logger) {
	res, err := pipeline.NewSufficiencyChecker(st.Matches, cfg.Graph).Check(ctx)
	if err != nil {
		logger.Printf("Sufficiency check failed: %v", err)
		return
	}
	for _, c := range res.Checks {
		if !c.Pass {
			logger.Printf("Sufficiency: %s failed (want %s, got %s)", c.Name, c.Threshold, c.Actual)
		}
	}
	for _, e := range res.Errors {
		logger.Printf("Sufficiency: %s", e)
	}
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
