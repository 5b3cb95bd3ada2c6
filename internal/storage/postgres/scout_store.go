package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/landingscout/landingscout/internal/scout"
)

// ScoutStore persists scout definitions in Postgres.
type ScoutStore struct {
	db dbConn
}

// NewScoutStore creates a Postgres-backed ScoutStore using the provided
// config.
func NewScoutStore(ctx context.Context, cfg Config) (*ScoutStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ScoutStore{db: pool}, nil
}

// NewScoutStoreWithConn constructs a store from an existing connection
// (primarily for testing).
func NewScoutStoreWithConn(db dbConn) (*ScoutStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is required")
	}
	return &ScoutStore{db: db}, nil
}

// Close releases the underlying pool resources.
func (s *ScoutStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

const scoutColumns = `
	id,
	name,
	start_url,
	schedule,
	page_types,
	active,
	max_pages_to_visit,
	timeout_ms,
	last_run_at,
	next_run_at,
	created_at,
	updated_at`

// CreateScout inserts a new scout row.
func (s *ScoutStore) CreateScout(ctx context.Context, sc scout.Scout) error {
	if sc.ID == "" {
		return fmt.Errorf("scout id is required")
	}
	pageTypes, err := json.Marshal(sc.PageTypes)
	if err != nil {
		return fmt.Errorf("marshal page types: %w", err)
	}
	query := `
INSERT INTO scouts (` + scoutColumns + `
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`
	args := []any{
		sc.ID,
		sc.Name,
		sc.StartURL,
		sc.Schedule,
		pageTypes,
		sc.Active,
		sc.MaxPagesToVisit,
		sc.Timeout.Milliseconds(),
		sc.LastRunAt,
		sc.NextRunAt,
		sc.CreatedAt,
		sc.UpdatedAt,
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert scout: %w", err)
	}
	return nil
}

// GetScout fetches one scout by ID.
func (s *ScoutStore) GetScout(ctx context.Context, id string) (scout.Scout, error) {
	query := `SELECT ` + scoutColumns + ` FROM scouts WHERE id = $1`
	sc, err := scanScout(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scout.Scout{}, scout.ErrNotFound
		}
		return scout.Scout{}, fmt.Errorf("select scout: %w", err)
	}
	return sc, nil
}

// UpdateScout replaces the mutable fields of a scout row.
func (s *ScoutStore) UpdateScout(ctx context.Context, sc scout.Scout) error {
	pageTypes, err := json.Marshal(sc.PageTypes)
	if err != nil {
		return fmt.Errorf("marshal page types: %w", err)
	}
	query := `
UPDATE scouts SET
	name = $2,
	start_url = $3,
	schedule = $4,
	page_types = $5,
	active = $6,
	max_pages_to_visit = $7,
	timeout_ms = $8,
	updated_at = $9
WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		sc.ID,
		sc.Name,
		sc.StartURL,
		sc.Schedule,
		pageTypes,
		sc.Active,
		sc.MaxPagesToVisit,
		sc.Timeout.Milliseconds(),
		sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update scout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scout.ErrNotFound
	}
	return nil
}

// DeleteScout removes a scout row.
func (s *ScoutStore) DeleteScout(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM scouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scout.ErrNotFound
	}
	return nil
}

// ListScouts returns all scouts, newest first.
func (s *ScoutStore) ListScouts(ctx context.Context) ([]scout.Scout, error) {
	query := `SELECT ` + scoutColumns + ` FROM scouts ORDER BY created_at DESC`
	return s.list(ctx, query)
}

// ListActiveScouts returns scouts eligible for scheduling, newest first.
func (s *ScoutStore) ListActiveScouts(ctx context.Context) ([]scout.Scout, error) {
	query := `SELECT ` + scoutColumns + ` FROM scouts WHERE active ORDER BY created_at DESC`
	return s.list(ctx, query)
}

// UpdateRunTimes stamps the last and next run times on a scout row.
func (s *ScoutStore) UpdateRunTimes(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	query := `UPDATE scouts SET last_run_at = $2, next_run_at = $3 WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id, lastRun, nextRun)
	if err != nil {
		return fmt.Errorf("update run times: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scout.ErrNotFound
	}
	return nil
}

func (s *ScoutStore) list(ctx context.Context, query string, args ...any) ([]scout.Scout, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select scouts: %w", err)
	}
	defer rows.Close()

	var out []scout.Scout
	for rows.Next() {
		sc, err := scanScout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scout: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scouts: %w", err)
	}
	return out, nil
}

func scanScout(row pgx.Row) (scout.Scout, error) {
	var (
		sc        scout.Scout
		pageTypes []byte
		timeoutMs int64
	)
	err := row.Scan(
		&sc.ID,
		&sc.Name,
		&sc.StartURL,
		&sc.Schedule,
		&pageTypes,
		&sc.Active,
		&sc.MaxPagesToVisit,
		&timeoutMs,
		&sc.LastRunAt,
		&sc.NextRunAt,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return scout.Scout{}, err
	}
	if len(pageTypes) > 0 {
		if err := json.Unmarshal(pageTypes, &sc.PageTypes); err != nil {
			return scout.Scout{}, fmt.Errorf("unmarshal page types: %w", err)
		}
	}
	sc.Timeout = time.Duration(timeoutMs) * time.Millisecond
	return sc, nil
}
