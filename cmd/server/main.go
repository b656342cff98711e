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
	"syscall"
	"time"

	"draft-strategy-lab/internal/api"
	"draft-strategy-lab/internal/config"
	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/session"
	"draft-strategy-lab/internal/simulation"
	"draft-strategy-lab/internal/storage"
	"draft-strategy-lab/internal/stores"
)

// shutdownTimeout bounds graceful shutdown before the process is forced down.
const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv(config.EnvConfigFile), "YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (default: config server.addr / SERVER_ADDR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default: config / POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (default: config / CLICKHOUSE_DSN)")
	matchFile := flag.String("match-file", "", "JSON match feed used to seed an empty store")
	dataDir := flag.String("data-dir", "", "Analysis document directory (default: config data_dir, else mock)")
	interval := flag.Duration("interval", 0, "Live replay interval (default: config replay.interval)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", true, "Apply embedded migrations on startup")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		logger.Fatalf("Failed to apply env: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *useMemory {
		cfg.Storage = config.StorageConfig{}
	}
	if *matchFile != "" {
		cfg.Replay.MatchFile = *matchFile
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *interval > 0 {
		cfg.Replay.Interval = *interval
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	st, err := stores.Open(ctx, cfg.Storage, *migrate)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer st.Close()
	logger.Printf("Storage: %s relational, %s analytics", st.Relational, st.Analytics)

	n, err := st.SeedMatches(ctx, cfg.Replay.MatchFile, logger)
	if err != nil {
		logger.Fatalf("Failed to seed matches: %v", err)
	}
	if err := seedTeams(ctx, st.Preferences, cfg.Teams); err != nil {
		logger.Fatalf("Failed to seed team names: %v", err)
	}

	matches, err := replay.NewRunner(st.Matches).Load(ctx)
	if err != nil {
		logger.Fatalf("Failed to load matches: %v", err)
	}

	sess, err := session.New(session.Options{
		Matches:         matches,
		GraphConfig:     cfg.Graph,
		Interval:        cfg.Replay.Interval,
		SnapshotStore:   st.Snapshots,
		PreferenceStore: st.Preferences,
		Logger:          log.New(os.Stdout, "[session] ", log.LstdFlags),
	})
	if err != nil {
		logger.Fatalf("Failed to create session: %v", err)
	}
	logger.Printf("Session %s: %d matches, replay interval %v", sess.ID(), n, cfg.Replay.Interval)

	sampler, err := simulation.NewSampler(cfg.Sampler, cfg.Toggles)
	if err != nil {
		logger.Fatalf("Failed to create sampler: %v", err)
	}

	bundle := datasource.NewLoader(cfg.DataDir).WithLogger(log.New(os.Stdout, "[datasource] ", log.LstdFlags)).Load()

	apiServer, err := api.New(api.Options{
		Session:  sess,
		Bundle:   bundle,
		Sampler:  sampler,
		RunStore: st.Runs,
		Logger:   log.New(os.Stdout, "[api] ", log.LstdFlags),
	})
	if err != nil {
		logger.Fatalf("Failed to create API: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Printf("Graceful shutdown timed out after %v, forcing exit", shutdownTimeout)
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	observability.SetActiveSessions(1)

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s (%s data)", cfg.Server.Addr, bundle.Source)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}
	shutdownCancel()

	// Close ends replay streams and waits for running replays.
	sess.Close()
	observability.SetActiveSessions(0)
	close(done)

	if runErr != nil {
		logger.Fatalf("Server error: %v", runErr)
	}
	logger.Println("Shutdown complete")
}

// seedTeams stores the configured team names unless names were saved before.
func seedTeams(ctx context.Context, prefs storage.PreferenceStore, names domain.TeamNames) error {
	_, err := prefs.GetValue(ctx, domain.KeyHomeTeam)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}
	return storage.SaveTeamNames(ctx, prefs, names)
}
