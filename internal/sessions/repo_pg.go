package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repo-analyzer-client/internal/analyzer"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns a session by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT id, repo_url, focus, analysis_id, result, active_tab, messages, last_error, busy, created_at, updated_at
FROM sessions
WHERE id = $1
LIMIT 1`
	var (
		s        Session
		result   sql.NullString
		messages sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.RepoURL,
		&s.Focus,
		&s.AnalysisID,
		&result,
		&s.ActiveTab,
		&messages,
		&s.LastError,
		&s.Busy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if result.Valid && result.String != "" && result.String != "null" {
		var parsed analyzer.Result
		if err := json.Unmarshal([]byte(result.String), &parsed); err != nil {
			return Session{}, fmt.Errorf("decode session result: %w", err)
		}
		s.Result = &parsed
	}
	s.Messages = []analyzer.ChatMessage{}
	if messages.Valid && messages.String != "" {
		if err := json.Unmarshal([]byte(messages.String), &s.Messages); err != nil {
			return Session{}, fmt.Errorf("decode session messages: %w", err)
		}
	}
	return s, nil
}

// Save upserts the session view state. The busy column is left untouched.
func (r *PGRepo) Save(ctx context.Context, session Session) error {
	const query = `
INSERT INTO sessions (id, repo_url, focus, analysis_id, result, active_tab, messages, last_error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (id) DO UPDATE SET
	repo_url = EXCLUDED.repo_url,
	focus = EXCLUDED.focus,
	analysis_id = EXCLUDED.analysis_id,
	result = EXCLUDED.result,
	active_tab = EXCLUDED.active_tab,
	messages = EXCLUDED.messages,
	last_error = EXCLUDED.last_error,
	updated_at = NOW()`
	var resultPayload any
	if session.Result != nil {
		raw, err := json.Marshal(session.Result)
		if err != nil {
			return err
		}
		resultPayload = raw
	}
	messages := session.Messages
	if messages == nil {
		messages = []analyzer.ChatMessage{}
	}
	messagesPayload, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.DB.ExecContext(ctx, query,
		session.ID,
		session.RepoURL,
		session.Focus,
		session.AnalysisID,
		resultPayload,
		session.ActiveTab,
		messagesPayload,
		session.LastError,
		createdAt,
	)
	return err
}

// Delete removes a session.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// TryMarkBusy takes the busy flag atomically.
func (r *PGRepo) TryMarkBusy(ctx context.Context, id string, staleAfter time.Duration) (bool, error) {
	const query = `
INSERT INTO sessions (id, busy, created_at, updated_at)
VALUES ($1, TRUE, NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET busy = TRUE, updated_at = NOW()
WHERE sessions.busy = FALSE OR sessions.updated_at < $2`
	cutoff := time.Now().UTC().Add(-staleAfter)
	if staleAfter <= 0 {
		cutoff = time.Time{}
	}
	res, err := r.DB.ExecContext(ctx, query, id, cutoff)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearBusy releases the busy flag.
func (r *PGRepo) ClearBusy(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET busy = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// PurgeExpired deletes idle sessions and returns their IDs.
func (r *PGRepo) PurgeExpired(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `DELETE FROM sessions WHERE updated_at < $1 RETURNING id`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
