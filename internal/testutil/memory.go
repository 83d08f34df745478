// Package testutil provides in-memory repositories for tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/tripseat/service-booking/internal/domain/booking"
	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/ledger"
	"github.com/tripseat/service-booking/internal/platform/kafka"
	"github.com/tripseat/service-booking/internal/platform/pagination"
)

// RouteRepo is an in-memory route catalog that also serves as the
// ledger's capacity store.
type RouteRepo struct {
	mu     sync.Mutex
	routes map[uuid.UUID]*routeDomain.Route
}

// NewRouteRepo creates an empty RouteRepo.
func NewRouteRepo() *RouteRepo {
	return &RouteRepo{routes: map[uuid.UUID]*routeDomain.Route{}}
}

func cloneRoute(r *routeDomain.Route, available int) *routeDomain.Route {
	return routeDomain.Reconstruct(r.ID(), r.Name(), r.Mode(), r.Stops(), r.PricePerSegmentCents(),
		r.Currency(), r.TotalCapacity(), available, r.DepartureTime(), r.CreatedAt(), r.UpdatedAt())
}

// FindByID returns a copy of the stored route.
func (m *RouteRepo) FindByID(_ context.Context, id uuid.UUID) (*routeDomain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, routeDomain.ErrRouteNotFound
	}
	return cloneRoute(r, r.AvailableCapacity()), nil
}

// List filters by mode and pages by name, like the GORM repository.
func (m *RouteRepo) List(_ context.Context, mode routeDomain.Mode, page, limit int) ([]*routeDomain.Route, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*routeDomain.Route
	for _, r := range m.routes {
		if mode == "" || r.Mode() == mode {
			out = append(out, cloneRoute(r, r.AvailableCapacity()))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return paginate(out, page, limit), int64(len(out)), nil
}

// Save inserts a new route. An existing id yields ErrRouteExists.
func (m *RouteRepo) Save(_ context.Context, r *routeDomain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[r.ID()]; ok {
		return routeDomain.ErrRouteExists
	}
	m.routes[r.ID()] = cloneRoute(r, r.AvailableCapacity())
	return nil
}

// UpdateDetails replaces catalog attributes and keeps the stored capacity.
func (m *RouteRepo) UpdateDetails(_ context.Context, r *routeDomain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.routes[r.ID()]
	if !ok {
		return routeDomain.ErrRouteNotFound
	}
	m.routes[r.ID()] = cloneRoute(r, current.AvailableCapacity())
	return nil
}

// LoadCapacity implements ledger.CapacityStore.
func (m *RouteRepo) LoadCapacity(_ context.Context, id uuid.UUID) (ledger.Capacity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return ledger.Capacity{}, routeDomain.ErrRouteNotFound
	}
	return ledger.Capacity{Total: r.TotalCapacity(), Available: r.AvailableCapacity()}, nil
}

// StoreAvailable implements ledger.CapacityStore.
func (m *RouteRepo) StoreAvailable(_ context.Context, id uuid.UUID, available int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return routeDomain.ErrRouteNotFound
	}
	m.routes[id] = cloneRoute(r, available)
	return nil
}

// BookingRepo is an in-memory booking store. It keeps copies so callers
// never share aggregates. SaveHook, when set, runs before every Save.
type BookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	seq      map[uuid.UUID]int
	SaveHook func() error
}

// NewBookingRepo creates an empty BookingRepo.
func NewBookingRepo() *BookingRepo {
	return &BookingRepo{
		bookings: map[uuid.UUID]*bookingDomain.Booking{},
		seq:      map[uuid.UUID]int{},
	}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(b.ID(), b.BookingNumber(), b.UserID(), b.RouteID(),
		b.FromStop(), b.ToStop(), b.SeatCount(), b.PriceCents(), b.Currency(), b.Status(),
		b.JourneyDate(), b.CancelledAt(), b.Version(), b.CreatedAt(), b.UpdatedAt())
}

// FindByID returns a copy of the stored booking.
func (m *BookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingDomain.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// FindByUserID pages a user's bookings, newest first.
func (m *BookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.newestFirst(func(b *bookingDomain.Booking) bool { return b.UserID() == userID })
	return paginate(out, page, limit), int64(len(out)), nil
}

// ListAll pages every booking, newest first.
func (m *BookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.newestFirst(func(*bookingDomain.Booking) bool { return true })
	return paginate(out, page, limit), int64(len(out)), nil
}

// newestFirst orders by insertion, which stands in for created_at DESC.
func (m *BookingRepo) newestFirst(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID()] > m.seq[out[j].ID()] })
	return out
}

// CountByStatus counts bookings per status.
func (m *BookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range m.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

// Save stores a new booking after running SaveHook.
func (m *BookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	if m.SaveHook != nil {
		if err := m.SaveHook(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID()] = cloneBooking(b)
	m.seq[b.ID()] = len(m.seq) + 1
	return nil
}

// Update stores b if the stored version is exactly one behind it.
func (m *BookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.bookings[b.ID()]
	if !ok || current.Version() != b.Version()-1 {
		return bookingDomain.ErrVersionConflict
	}
	m.bookings[b.ID()] = cloneBooking(b)
	return nil
}

// Count returns the number of stored bookings.
func (m *BookingRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// Publisher records every published event.
type Publisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

// PublishEvent records event.
func (p *Publisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Types lists the published event types in order.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func paginate[T any](items []T, page, limit int) []T {
	start := pagination.Offset(page, limit)
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
