package sessions

import (
	"context"
	"errors"
	"time"
)

// Repo persists session view state. Save never changes the busy flag; only
// TryMarkBusy and ClearBusy do.
type Repo interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, id string) error
	// TryMarkBusy sets the busy flag if it is clear or older than staleAfter,
	// creating the session when missing. It reports whether the flag was taken.
	TryMarkBusy(ctx context.Context, id string, staleAfter time.Duration) (bool, error)
	ClearBusy(ctx context.Context, id string) error
	// PurgeExpired deletes sessions not updated since before and returns their IDs.
	PurgeExpired(ctx context.Context, before time.Time) ([]string, error)
}

// Load returns the stored session or a fresh one when none exists yet.
func Load(ctx context.Context, repo Repo, id string) (Session, error) {
	s, err := repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return New(id, time.Now().UTC()), nil
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}
