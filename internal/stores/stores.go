// Package stores opens the storage backends selected by configuration.
package stores

import (
	"context"
	"fmt"
	"log"

	"draft-strategy-lab/internal/config"
	"draft-strategy-lab/internal/datasource"
	"draft-strategy-lab/internal/pipeline"
	"draft-strategy-lab/internal/storage"
	chstore "draft-strategy-lab/internal/storage/clickhouse"
	"draft-strategy-lab/internal/storage/memory"
	"draft-strategy-lab/internal/storage/migrations"
	pgstore "draft-strategy-lab/internal/storage/postgres"
)

// Set holds one implementation of every store.
type Set struct {
	Matches     storage.MatchStore
	Snapshots   storage.SnapshotStore
	Runs        storage.SimulationRunStore
	Preferences storage.PreferenceStore

	// Backend names for logging: "memory", "postgres" or "clickhouse".
	Relational string
	Analytics  string

	closers []func()
}

// Close releases every open connection.
func (s *Set) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open builds the stores for cfg. An empty Postgres DSN keeps matches,
// snapshots and preferences in memory; an empty ClickHouse DSN keeps
// simulation runs in memory. With migrate set, embedded migrations are
// applied before the stores are returned.
func Open(ctx context.Context, cfg config.StorageConfig, migrate bool) (*Set, error) {
	s := &Set{
		Matches:     memory.NewMatchStore(),
		Snapshots:   memory.NewSnapshotStore(),
		Runs:        memory.NewSimulationRunStore(),
		Preferences: memory.NewPreferenceStore(),
		Relational:  "memory",
		Analytics:   "memory",
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN,
			pgstore.WithMaxConns(cfg.PostgresMaxConns),
			pgstore.WithConnectTimeout(cfg.PostgresConnectTimeout))
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				s.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		s.Matches = pgstore.NewMatchStore(pool)
		s.Snapshots = pgstore.NewSnapshotStore(pool)
		s.Preferences = pgstore.NewPreferenceStore(pool)
		s.Relational = "postgres"
	}

	if cfg.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Runs = chstore.NewSimulationRunStore(conn)
		s.Analytics = "clickhouse"
	}

	return s, nil
}

// SeedMatches fills an empty match store from matchFile, or from the fixture
// feed when matchFile is empty. A populated store is left untouched.
// Returns the number of stored matches.
func (s *Set) SeedMatches(ctx context.Context, matchFile string, logger *log.Logger) (int, error) {
	existing, err := s.Matches.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read matches: %w", err)
	}
	if len(existing) > 0 {
		return len(existing), nil
	}

	if matchFile == "" {
		if err := pipeline.LoadFixtures(ctx, s.Matches); err != nil {
			return 0, err
		}
		return len(pipeline.FixtureMatches()), nil
	}

	matches, ignored, err := datasource.LoadMatchFile(matchFile)
	if err != nil {
		return 0, err
	}
	for _, ig := range ignored {
		if logger != nil {
			logger.Printf("match feed: ignored %s %s (%s)", ig.File, ig.Entry, ig.Reason)
		}
	}
	if err := s.Matches.InsertBulk(ctx, matches); err != nil {
		return 0, fmt.Errorf("store matches: %w", err)
	}
	return len(matches), nil
}
