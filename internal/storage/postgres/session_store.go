package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/landingscout/landingscout/internal/scout"
)

// SessionStore persists sessions and page results in Postgres.
type SessionStore struct {
	db dbConn
}

// NewSessionStore creates a Postgres-backed SessionStore using the
// provided config.
func NewSessionStore(ctx context.Context, cfg Config) (*SessionStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &SessionStore{db: pool}, nil
}

// NewSessionStoreWithConn constructs a store from an existing connection
// (primarily for testing).
func NewSessionStoreWithConn(db dbConn) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is required")
	}
	return &SessionStore{db: db}, nil
}

// Close releases the underlying pool resources.
func (s *SessionStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

const sessionColumns = `
	id,
	scout_id,
	start_time,
	end_time,
	total_pages_scanned,
	status,
	error_message`

const pageResultColumns = `
	id,
	session_id,
	url,
	page_type,
	product_count,
	scan_time,
	processing_time_ms,
	status,
	error_message,
	screenshot_path,
	html_snapshot_uri`

var terminalStatuses = []string{
	string(scout.SessionStatusCompleted),
	string(scout.SessionStatusFailed),
	string(scout.SessionStatusTimeout),
	string(scout.SessionStatusCancelled),
}

// CreateSession inserts a new session row.
func (s *SessionStore) CreateSession(ctx context.Context, session scout.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	query := `
INSERT INTO sessions (` + sessionColumns + `
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`
	_, err := s.db.Exec(ctx, query,
		session.ID,
		session.ScoutID,
		session.StartTime,
		session.EndTime,
		session.TotalPagesScanned,
		string(session.Status),
		session.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession fetches one session by ID.
func (s *SessionStore) GetSession(ctx context.Context, id string) (scout.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	session, err := scanSession(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scout.Session{}, scout.ErrNotFound
		}
		return scout.Session{}, fmt.Errorf("select session: %w", err)
	}
	return session, nil
}

// UpdateSession replaces the mutable fields of a session row. Rows already
// in a terminal status are left untouched.
func (s *SessionStore) UpdateSession(ctx context.Context, session scout.Session) error {
	query := `
UPDATE sessions SET
	end_time = $2,
	total_pages_scanned = $3,
	status = $4,
	error_message = $5
WHERE id = $1 AND NOT (status = ANY($6))`
	tag, err := s.db.Exec(ctx, query,
		session.ID,
		session.EndTime,
		session.TotalPagesScanned,
		string(session.Status),
		session.ErrorMessage,
		terminalStatuses,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetSession(ctx, session.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("session is terminal")
	}
	return nil
}

// ListSessions returns all sessions, newest first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]scout.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY start_time DESC`
	return s.listSessions(ctx, query)
}

// ListSessionsByScout returns one scout's sessions, newest first.
func (s *SessionStore) ListSessionsByScout(ctx context.Context, scoutID string) ([]scout.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE scout_id = $1 ORDER BY start_time DESC`
	return s.listSessions(ctx, query, scoutID)
}

// RecordPageResult inserts a page result row.
func (s *SessionStore) RecordPageResult(ctx context.Context, r scout.PageResult) error {
	if r.ID == "" {
		return fmt.Errorf("page result id is required")
	}
	query := `
INSERT INTO page_results (` + pageResultColumns + `
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`
	_, err := s.db.Exec(ctx, query,
		r.ID,
		r.SessionID,
		r.URL,
		r.PageType,
		r.ProductCount,
		r.ScanTime,
		r.ProcessingTimeMs,
		string(r.Status),
		r.ErrorMessage,
		r.ScreenshotPath,
		r.HTMLSnapshotURI,
	)
	if err != nil {
		return fmt.Errorf("insert page result: %w", err)
	}
	return nil
}

// ListPageResults returns a session's page results in scan order.
func (s *SessionStore) ListPageResults(ctx context.Context, sessionID string) ([]scout.PageResult, error) {
	query := `SELECT ` + pageResultColumns + ` FROM page_results WHERE session_id = $1 ORDER BY scan_time ASC, id ASC`
	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select page results: %w", err)
	}
	defer rows.Close()

	var out []scout.PageResult
	for rows.Next() {
		r, err := scanPageResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page results: %w", err)
	}
	return out, nil
}

// GetPageResult fetches one page result by ID.
func (s *SessionStore) GetPageResult(ctx context.Context, id string) (scout.PageResult, error) {
	query := `SELECT ` + pageResultColumns + ` FROM page_results WHERE id = $1`
	r, err := scanPageResult(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scout.PageResult{}, scout.ErrNotFound
		}
		return scout.PageResult{}, fmt.Errorf("select page result: %w", err)
	}
	return r, nil
}

func (s *SessionStore) listSessions(ctx context.Context, query string, args ...any) ([]scout.Session, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var out []scout.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func scanSession(row pgx.Row) (scout.Session, error) {
	var (
		session scout.Session
		status  string
	)
	err := row.Scan(
		&session.ID,
		&session.ScoutID,
		&session.StartTime,
		&session.EndTime,
		&session.TotalPagesScanned,
		&status,
		&session.ErrorMessage,
	)
	if err != nil {
		return scout.Session{}, err
	}
	session.Status = scout.SessionStatus(status)
	return session, nil
}

func scanPageResult(row pgx.Row) (scout.PageResult, error) {
	var (
		r      scout.PageResult
		status string
	)
	err := row.Scan(
		&r.ID,
		&r.SessionID,
		&r.URL,
		&r.PageType,
		&r.ProductCount,
		&r.ScanTime,
		&r.ProcessingTimeMs,
		&status,
		&r.ErrorMessage,
		&r.ScreenshotPath,
		&r.HTMLSnapshotURI,
	)
	if err != nil {
		return scout.PageResult{}, err
	}
	r.Status = scout.PageResultStatus(status)
	return r, nil
}
