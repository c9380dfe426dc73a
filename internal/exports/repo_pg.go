package exports

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, export Export) error {
	const query = `
INSERT INTO exports (id, session_id, format, file_name, content_type, storage_key, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		export.ID,
		export.SessionID,
		export.Format,
		export.FileName,
		export.ContentType,
		export.StorageKey,
		export.SizeBytes,
		export.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Export, error) {
	const query = `
SELECT id, session_id, format, file_name, content_type, storage_key, size_bytes, created_at
FROM exports
WHERE id = $1
LIMIT 1`
	export, err := scanExport(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Export{}, ErrNotFound
	}
	return export, err
}

func (r *PGRepo) ListBySession(ctx context.Context, sessionID string) ([]Export, error) {
	const query = `
SELECT id, session_id, format, file_name, content_type, storage_key, size_bytes, created_at
FROM exports
WHERE session_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Export{}
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, export)
	}
	return out, rows.Err()
}

func (r *PGRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM exports WHERE session_id = $1`, sessionID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner) (Export, error) {
	var e Export
	err := row.Scan(&e.ID, &e.SessionID, &e.Format, &e.FileName, &e.ContentType, &e.StorageKey, &e.SizeBytes, &e.CreatedAt)
	return e, err
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
