package route

import (
	"context"

	"github.com/google/uuid"
)

// RouteRepository defines the persistence contract for the route catalog.
type RouteRepository interface {
	// FindByID retrieves a route by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Route, error)

	// List retrieves routes, optionally filtered by mode, with pagination.
	List(ctx context.Context, mode Mode, page, limit int) ([]*Route, int64, error)

	// Save persists a new route including its initial capacity.
	Save(ctx context.Context, r *Route) error

	// UpdateDetails persists catalog edits. Capacity columns are never written.
	UpdateDetails(ctx context.Context, r *Route) error
}
