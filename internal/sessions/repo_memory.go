package sessions

import (
	"context"
	"sync"
	"time"

	"repo-analyzer-client/internal/analyzer"
)

// MemoryRepo stores sessions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Session
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Session),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a copy of the session.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return clone(s), nil
}

// Save upserts the session, keeping the stored busy flag.
func (r *MemoryRepo) Save(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if existing, ok := r.byID[session.ID]; ok {
		session.Busy = existing.Busy
		session.CreatedAt = existing.CreatedAt
	} else {
		session.Busy = false
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
	}
	session.UpdatedAt = now
	r.byID[session.ID] = clone(session)
	return nil
}

// Delete removes the session.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// TryMarkBusy takes the session's busy flag.
func (r *MemoryRepo) TryMarkBusy(ctx context.Context, id string, staleAfter time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	s, ok := r.byID[id]
	if !ok {
		s = New(id, now)
	}
	if s.Busy && (staleAfter <= 0 || now.Sub(s.UpdatedAt) < staleAfter) {
		return false, nil
	}
	s.Busy = true
	s.UpdatedAt = now
	r.byID[id] = s
	return true, nil
}

// ClearBusy releases the session's busy flag.
func (r *MemoryRepo) ClearBusy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil
	}
	s.Busy = false
	s.UpdatedAt = r.now()
	r.byID[id] = s
	return nil
}

// PurgeExpired drops sessions idle since before.
func (r *MemoryRepo) PurgeExpired(ctx context.Context, before time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged []string
	for id, s := range r.byID {
		if s.UpdatedAt.Before(before) {
			delete(r.byID, id)
			purged = append(purged, id)
		}
	}
	return purged, nil
}

func clone(s Session) Session {
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	s.Messages = append([]analyzer.ChatMessage{}, s.Messages...)
	return s
}
