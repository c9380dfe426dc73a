package exports

import "context"

// Repo persists export records.
type Repo interface {
	Create(ctx context.Context, export Export) error
	GetByID(ctx context.Context, id string) (Export, error)
	ListBySession(ctx context.Context, sessionID string) ([]Export, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
