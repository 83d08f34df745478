package route

import (
	"context"

	"github.com/google/uuid"
)

// CapacityLedger owns the available-capacity counter of every route.
//
// Reserve must check and decrement as one step with respect to any other
// Reserve or Release on the same route. Release adds seats back, clamped at
// the route total; a clamped release returns ErrOverRelease after applying.
type CapacityLedger interface {
	Reserve(ctx context.Context, routeID uuid.UUID, seats int) error
	Release(ctx context.Context, routeID uuid.UUID, seats int) error
	Available(ctx context.Context, routeID uuid.UUID) (int, error)
}
