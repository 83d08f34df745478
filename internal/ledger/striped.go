package ledger

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tripseat/service-booking/internal/domain/route"
)

// Capacity is a route's seat counter as read from the store.
type Capacity struct {
	Total     int
	Available int
}

// CapacityStore is the durable home of route capacity counters.
type CapacityStore interface {
	// LoadCapacity returns route.ErrRouteNotFound for unknown routes.
	LoadCapacity(ctx context.Context, routeID uuid.UUID) (Capacity, error)
	StoreAvailable(ctx context.Context, routeID uuid.UUID, available int) error
}

// Striped serialises every Reserve and Release of a route inside this process
// by hashing the route onto one of a fixed number of lock stripes. Each
// change is written to the store before the lock is released, so callers see
// durable results. Only correct while a single process writes the counters.
type Striped struct {
	stripes []chan struct{}
	store   CapacityStore
	logger  *zap.Logger
}

var _ route.CapacityLedger = (*Striped)(nil)

// NewStriped creates a ledger with n stripes; n <= 0 picks 16 per CPU.
func NewStriped(store CapacityStore, n int, logger *zap.Logger) *Striped {
	if n <= 0 {
		n = 16 * runtime.NumCPU()
	}
	stripes := make([]chan struct{}, n)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
	}
	return &Striped{stripes: stripes, store: store, logger: logger}
}

// StripeForRoute maps a route id onto [0, stripes).
func StripeForRoute(routeID uuid.UUID, stripes int) int {
	h := fnv.New32a()
	_, _ = h.Write(routeID[:])
	return int(h.Sum32() % uint32(stripes))
}

// lock blocks until the route's stripe is free or ctx is done.
func (l *Striped) lock(ctx context.Context, routeID uuid.UUID) (func(), error) {
	stripe := l.stripes[StripeForRoute(routeID, len(l.stripes))]
	select {
	case stripe <- struct{}{}:
		return func() { <-stripe }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for capacity lock: %w", ctx.Err())
	}
}

// Reserve takes seats from the route if enough are available.
func (l *Striped) Reserve(ctx context.Context, routeID uuid.UUID, seats int) error {
	if seats <= 0 {
		return route.ErrInvalidQuantity.WithMessage("seat count must be positive")
	}

	unlock, err := l.lock(ctx, routeID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := l.store.LoadCapacity(ctx, routeID)
	if err != nil {
		return err
	}
	if c.Available < seats {
		return route.ErrInsufficientCapacity.WithMessage(
			fmt.Sprintf("requested %d seats, %d available", seats, c.Available))
	}

	if err := l.store.StoreAvailable(ctx, routeID, c.Available-seats); err != nil {
		return fmt.Errorf("failed to store capacity: %w", err)
	}
	return nil
}

// Release returns seats to the route, never exceeding its total.
func (l *Striped) Release(ctx context.Context, routeID uuid.UUID, seats int) error {
	if seats <= 0 {
		return route.ErrInvalidQuantity.WithMessage("seat count must be positive")
	}

	unlock, err := l.lock(ctx, routeID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := l.store.LoadCapacity(ctx, routeID)
	if err != nil {
		return err
	}

	next := c.Available + seats
	var overflow error
	if next > c.Total {
		overflow = route.ErrOverRelease.WithMessage(
			fmt.Sprintf("release of %d seats exceeds total %d (available %d)", seats, c.Total, c.Available))
		l.logger.Error("capacity over-release clamped",
			zap.String("route_id", routeID.String()),
			zap.Int("seats", seats),
			zap.Int("available", c.Available),
			zap.Int("total", c.Total),
		)
		next = c.Total
	}

	if next != c.Available {
		if err := l.store.StoreAvailable(ctx, routeID, next); err != nil {
			return fmt.Errorf("failed to store capacity: %w", err)
		}
	}
	return overflow
}

// Available returns the current counter, read under the route's lock.
func (l *Striped) Available(ctx context.Context, routeID uuid.UUID) (int, error) {
	unlock, err := l.lock(ctx, routeID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	c, err := l.store.LoadCapacity(ctx, routeID)
	if err != nil {
		return 0, err
	}
	return c.Available, nil
}
