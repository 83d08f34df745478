package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/platform/pagination"
)

// CreateRouteRequest holds the data needed to add a route to the catalog.
type CreateRouteRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Mode                 string   `json:"mode" binding:"required"`
	Stops                []string `json:"stops" binding:"required,min=2"`
	PricePerSegmentCents int64    `json:"price_per_segment_cents" binding:"required"`
	Currency             string   `json:"currency"`
	TotalCapacity        int      `json:"total_capacity" binding:"required"`
	DepartureTime        string   `json:"departure_time"`
}

// UpdateRouteRequest holds the editable catalog attributes of a route.
type UpdateRouteRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Mode                 string   `json:"mode" binding:"required"`
	Stops                []string `json:"stops" binding:"required,min=2"`
	PricePerSegmentCents int64    `json:"price_per_segment_cents" binding:"required"`
	Currency             string   `json:"currency"`
	DepartureTime        string   `json:"departure_time"`
}

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Mode                 string    `json:"mode"`
	Stops                []string  `json:"stops"`
	Origin               string    `json:"origin"`
	Destination          string    `json:"destination"`
	PricePerSegmentCents int64     `json:"price_per_segment_cents"`
	Currency             string    `json:"currency"`
	TotalCapacity        int       `json:"total_capacity"`
	AvailableCapacity    int       `json:"available_capacity"`
	DepartureTime        string    `json:"departure_time,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// FareQuoteDTO is a priced journey that has not been booked.
type FareQuoteDTO struct {
	RouteID              uuid.UUID `json:"route_id"`
	From                 string    `json:"from"`
	To                   string    `json:"to"`
	Seats                int       `json:"seats"`
	Segments             int       `json:"segments"`
	PricePerSegmentCents int64     `json:"price_per_segment_cents"`
	TotalCents           int64     `json:"total_cents"`
	Currency             string    `json:"currency"`
	AvailableSeats       int       `json:"available_seats"`
}

// RouteService is the application service for the route catalog.
type RouteService struct {
	routes routeDomain.RouteRepository
	ledger routeDomain.CapacityLedger
	fares  routeDomain.FareCalculator
	logger *zap.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(
	routes routeDomain.RouteRepository,
	ledger routeDomain.CapacityLedger,
	fares routeDomain.FareCalculator,
	logger *zap.Logger,
) *RouteService {
	return &RouteService{
		routes: routes,
		ledger: ledger,
		fares:  fares,
		logger: logger,
	}
}

// ListRoutes returns a page of routes, optionally filtered by mode.
func (s *RouteService) ListRoutes(ctx context.Context, mode string, page, limit int) (*pagination.Result[RouteDTO], error) {
	var filter routeDomain.Mode
	if mode != "" {
		m, err := routeDomain.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		filter = m
	}

	routes, total, err := s.routes.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]RouteDTO, len(routes))
	for i, rt := range routes {
		dtos[i] = toRouteDTO(rt, rt.AvailableCapacity())
	}
	result := pagination.NewResult(dtos, total, page, limit)
	return &result, nil
}

// GetRoute returns a route with its live seat availability.
func (s *RouteService) GetRoute(ctx context.Context, id uuid.UUID) (*RouteDTO, error) {
	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.Available(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toRouteDTO(rt, available)
	return &result, nil
}

// QuoteFare prices a journey without reserving anything.
func (s *RouteService) QuoteFare(ctx context.Context, id uuid.UUID, from, to string, seats int) (*FareQuoteDTO, error) {
	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fare, err := s.fares.Calculate(rt, from, to, seats)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.Available(ctx, id)
	if err != nil {
		return nil, err
	}

	return &FareQuoteDTO{
		RouteID:              rt.ID(),
		From:                 from,
		To:                   to,
		Seats:                fare.Seats,
		Segments:             fare.Segments,
		PricePerSegmentCents: fare.PricePerSegmentCents,
		TotalCents:           fare.TotalCents,
		Currency:             rt.Currency(),
		AvailableSeats:       available,
	}, nil
}

// CreateRoute adds a new route with all of its seats available.
func (s *RouteService) CreateRoute(ctx context.Context, req CreateRouteRequest) (*RouteDTO, error) {
	return s.createRoute(ctx, uuid.New(), req)
}

// UpdateRoute edits catalog attributes; capacity counters are left alone.
func (s *RouteService) UpdateRoute(ctx context.Context, id uuid.UUID, req UpdateRouteRequest) (*RouteDTO, error) {
	details, err := buildDetails(req.Name, req.Mode, req.Stops, req.PricePerSegmentCents, req.Currency, req.DepartureTime)
	if err != nil {
		return nil, err
	}

	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rt.UpdateDetails(details); err != nil {
		return nil, err
	}
	if err := s.routes.UpdateDetails(ctx, rt); err != nil {
		return nil, err
	}

	s.logger.Info("route updated",
		zap.String("route_id", rt.ID().String()),
		zap.String("name", rt.Name()),
	)

	result := toRouteDTO(rt, rt.AvailableCapacity())
	return &result, nil
}

// UpsertRoute creates the route under id or, if it exists, updates its
// details. It reports whether a route was created. Losing a creation race
// to another upsert turns into an update.
func (s *RouteService) UpsertRoute(ctx context.Context, id uuid.UUID, req CreateRouteRequest) (*RouteDTO, bool, error) {
	_, err := s.routes.FindByID(ctx, id)
	switch {
	case err == nil:
	case isRouteNotFound(err):
		dto, err := s.createRoute(ctx, id, req)
		if !errors.Is(err, routeDomain.ErrRouteExists) {
			return dto, err == nil, err
		}
	default:
		return nil, false, err
	}

	dto, err := s.UpdateRoute(ctx, id, UpdateRouteRequest{
		Name:                 req.Name,
		Mode:                 req.Mode,
		Stops:                req.Stops,
		PricePerSegmentCents: req.PricePerSegmentCents,
		Currency:             req.Currency,
		DepartureTime:        req.DepartureTime,
	})
	return dto, false, err
}

func (s *RouteService) createRoute(ctx context.Context, id uuid.UUID, req CreateRouteRequest) (*RouteDTO, error) {
	details, err := buildDetails(req.Name, req.Mode, req.Stops, req.PricePerSegmentCents, req.Currency, req.DepartureTime)
	if err != nil {
		return nil, err
	}

	rt, err := routeDomain.NewRouteWithID(id, details, req.TotalCapacity)
	if err != nil {
		return nil, err
	}
	if err := s.routes.Save(ctx, rt); err != nil {
		return nil, err
	}

	s.logger.Info("route created",
		zap.String("route_id", rt.ID().String()),
		zap.String("name", rt.Name()),
		zap.Int("total_capacity", rt.TotalCapacity()),
	)

	result := toRouteDTO(rt, rt.AvailableCapacity())
	return &result, nil
}

// --- Helpers ---

func isRouteNotFound(err error) bool {
	return errors.Is(err, routeDomain.ErrRouteNotFound)
}

func buildDetails(name, mode string, stops []string, price int64, currency, departure string) (routeDomain.Details, error) {
	m, err := routeDomain.ParseMode(mode)
	if err != nil {
		return routeDomain.Details{}, err
	}
	return routeDomain.Details{
		Name:                 name,
		Mode:                 m,
		Stops:                stops,
		PricePerSegmentCents: price,
		Currency:             currency,
		DepartureTime:        departure,
	}, nil
}

func toRouteDTO(rt *routeDomain.Route, available int) RouteDTO {
	return RouteDTO{
		ID:                   rt.ID(),
		Name:                 rt.Name(),
		Mode:                 string(rt.Mode()),
		Stops:                rt.Stops(),
		Origin:               rt.Origin(),
		Destination:          rt.Destination(),
		PricePerSegmentCents: rt.PricePerSegmentCents(),
		Currency:             rt.Currency(),
		TotalCapacity:        rt.TotalCapacity(),
		AvailableCapacity:    available,
		DepartureTime:        rt.DepartureTime(),
		CreatedAt:            rt.CreatedAt(),
		UpdatedAt:            rt.UpdatedAt(),
	}
}
