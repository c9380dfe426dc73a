package exports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores export records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Export
	bySession map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Export),
		bySession: make(map[string][]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, export Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[export.ID] = export
	r.bySession[export.SessionID] = append(r.bySession[export.SessionID], export.ID)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	export, ok := r.byID[id]
	if !ok {
		return Export{}, ErrNotFound
	}
	return export, nil
}

// ListBySession returns a session's exports, newest first.
func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string) ([]Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySession[sessionID]
	out := make([]Export, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.bySession[sessionID] {
		delete(r.byID, id)
	}
	delete(r.bySession, sessionID)
	return nil
}
