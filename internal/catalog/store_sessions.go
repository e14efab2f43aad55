package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dgadling/ompd/internal/services"
)

// ErrNotFound indicates the requested session does not exist in the catalog.
var ErrNotFound = errors.New("session not found")

const sessionColumns = `id, session_key, dir_path, state, legacy, target_width, target_height,
    COALESCE(error_message, ''), created_at, updated_at`

// Register inserts a session row in the given initial state. Only StateOpen
// (live capture) and StateClosed (discovered directory) are legal entry
// points into the catalog.
func (s *Store) Register(ctx context.Context, key, dirPath string, state State, legacy bool) (*Session, error) {
	if state != StateOpen && state != StateClosed {
		return nil, services.Wrap(services.ErrStateViolation, "catalog", "register",
			fmt.Sprintf("sessions enter the catalog as open or closed, not %s", state), nil)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (session_key, dir_path, state, legacy, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		key, dirPath, state, boolToInt(legacy), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("register session %s: %w", key, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id for %s: %w", key, err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one session by row id.
func (s *Store) GetByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByKey fetches one session by its session key.
func (s *Store) GetByKey(ctx context.Context, key string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions WHERE session_key = ?`, key)
	return scanSession(row)
}

// GetByPath fetches one session by directory path.
func (s *Store) GetByPath(ctx context.Context, dirPath string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions WHERE dir_path = ?`, dirPath)
	return scanSession(row)
}

// List returns all sessions ordered by session key ascending.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions ORDER BY session_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListPending returns non-terminal, non-open sessions ordered oldest first:
// the sweeper's work queue.
func (s *Store) ListPending(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions
         WHERE state NOT IN (?, ?) ORDER BY session_key ASC`,
		StateOpen, StateCompressed)
	if err != nil {
		return nil, fmt.Errorf("list pending sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// Transition advances a session from one state to the next. It rejects any
// move that is not the immediate forward step, and the UPDATE is guarded on
// the expected current state so a concurrent writer cannot race it past a
// stage.
func (s *Store) Transition(ctx context.Context, id int64, from, to State) error {
	if !CanTransition(from, to) {
		return services.Wrap(services.ErrStateViolation, "catalog", "transition",
			fmt.Sprintf("illegal move %s -> %s", from, to), nil)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET state = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND state = ?`,
		to, time.Now().UTC().Format(time.RFC3339Nano), id, from,
	)
	if err != nil {
		return fmt.Errorf("transition session %d to %s: %w", id, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition session %d rows: %w", id, err)
	}
	if affected == 0 {
		current, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return services.Wrap(services.ErrStateViolation, "catalog", "transition",
				fmt.Sprintf("session %d no longer in state %s", id, from), getErr)
		}
		return services.Wrap(services.ErrStateViolation, "catalog", "transition",
			fmt.Sprintf("session %s is in state %s, expected %s", current.Key, current.State, from), nil)
	}
	return nil
}

// SetTargetResolution caches the computed output resolution. The guard on
// state keeps an already-built movie's resolution immutable: recomputation
// after StateMovieBuilt would invalidate the encoded artifact.
func (s *Store) SetTargetResolution(ctx context.Context, id int64, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("target resolution %dx%d must be positive", width, height)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET target_width = ?, target_height = ?, updated_at = ?
         WHERE id = ? AND state IN (?, ?)`,
		width, height, time.Now().UTC().Format(time.RFC3339Nano),
		id, StateClosed, StateMetadataReady,
	)
	if err != nil {
		return fmt.Errorf("set target resolution for session %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set target resolution rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrStateViolation, "catalog", "set target resolution",
			fmt.Sprintf("session %d has already built its movie", id), nil)
	}
	return nil
}

// SetError records a per-session failure message without changing state, so
// the next sweep retries the same step.
func (s *Store) SetError(ctx context.Context, id int64, message string) error {
	if err := retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ensureContext(ctx),
			`UPDATE sessions SET error_message = ?, updated_at = ? WHERE id = ?`,
			message, time.Now().UTC().Format(time.RFC3339Nano), id)
		return err
	}); err != nil {
		return fmt.Errorf("set error for session %d: %w", id, err)
	}
	return nil
}

// Delete removes a session row; used by retention after its directory is
// removed.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess      Session
		legacy    int
		createdAt string
		updatedAt string
	)
	err := row.Scan(&sess.ID, &sess.Key, &sess.DirPath, &sess.State, &legacy,
		&sess.TargetWidth, &sess.TargetHeight, &sess.ErrorMessage, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Legacy = legacy != 0
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("session %d has corrupt created_at %q: %w", sess.ID, createdAt, err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("session %d has corrupt updated_at %q: %w", sess.ID, updatedAt, err)
	}
	return &sess, nil
}

func collectSessions(rows *sql.Rows) ([]*Session, error) {
	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
