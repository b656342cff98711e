package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// MatchStore implements storage.MatchStore using PostgreSQL.
type MatchStore struct {
	pool *Pool
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(pool *Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MatchStore = (*MatchStore)(nil)

const insertMatchSQL = `
	INSERT INTO matches (id, sequence, picks, bans, strategies, denied_strategies, won)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const selectMatchSQL = `
	SELECT id, sequence, picks, bans, strategies, denied_strategies, won
	FROM matches
`

// nonNil keeps TEXT[] NOT NULL columns satisfied.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func matchArgs(m *domain.Match) []any {
	return []any{
		m.ID, m.Sequence,
		nonNil(m.Picks), nonNil(m.Bans),
		nonNil(m.Strategies), nonNil(m.DeniedStrategies),
		m.Won,
	}
}

// Insert adds a new match. Returns ErrDuplicateKey if the id exists.
func (s *MatchStore) Insert(ctx context.Context, m *domain.Match) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	_, err := s.pool.Exec(ctx, insertMatchSQL, matchArgs(m)...)
	return translate("insert match", err)
}

// InsertBulk adds multiple matches atomically. Fails entire batch on any duplicate.
func (s *MatchStore) InsertBulk(ctx context.Context, matches []*domain.Match) error {
	if len(matches) == 0 {
		return nil
	}
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, m := range matches {
		batch.Queue(insertMatchSQL, matchArgs(m)...)
	}
	br := tx.SendBatch(ctx, batch)
	for range matches {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return translate("insert match in bulk", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
func (s *MatchStore) GetByID(ctx context.Context, id int) (*domain.Match, error) {
	row := s.pool.QueryRow(ctx, selectMatchSQL+" WHERE id = $1", id)
	m, err := scanMatch(row)
	if err != nil {
		return nil, translate("get match by id", err)
	}
	return m, nil
}

// GetAll retrieves every match ordered by (sequence ASC, id ASC).
func (s *MatchStore) GetAll(ctx context.Context) ([]*domain.Match, error) {
	rows, err := s.pool.Query(ctx, selectMatchSQL+" ORDER BY sequence ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("get all matches: %w", err)
	}
	defer rows.Close()

	var result []*domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return result, nil
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(&m.ID, &m.Sequence, &m.Picks, &m.Bans, &m.Strategies, &m.DeniedStrategies, &m.Won)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
