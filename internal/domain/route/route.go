package route

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripseat/service-booking/internal/platform/apperr"
)

const defaultCurrency = "INR"

// departureLayouts are accepted for departure times; values are stored as HH:MM.
var departureLayouts = []string{"15:04", "03:04 PM", "3:04 PM", "03:04PM"}

// Route is the aggregate root for a scheduled bus or train service.
// Available capacity is owned by the CapacityLedger; nothing in this
// package mutates it after construction.
type Route struct {
	id                   uuid.UUID
	name                 string
	mode                 Mode
	stops                []string
	pricePerSegmentCents int64
	currency             string
	totalCapacity        int
	availableCapacity    int
	departureTime        string
	createdAt            time.Time
	updatedAt            time.Time
}

// Details are the catalog attributes an operator may edit after creation.
type Details struct {
	Name                 string
	Mode                 Mode
	Stops                []string
	PricePerSegmentCents int64
	Currency             string
	DepartureTime        string
}

// NewRoute creates a route whose available capacity equals its total.
func NewRoute(details Details, totalCapacity int) (*Route, error) {
	return NewRouteWithID(uuid.New(), details, totalCapacity)
}

// NewRouteWithID is NewRoute for routes whose identity is assigned elsewhere,
// such as the upstream catalog.
func NewRouteWithID(id uuid.UUID, details Details, totalCapacity int) (*Route, error) {
	if id == uuid.Nil {
		return nil, apperr.Validation("route ID is required")
	}
	if totalCapacity <= 0 {
		return nil, apperr.Validation("total capacity must be positive")
	}

	r := &Route{
		id:                id,
		totalCapacity:     totalCapacity,
		availableCapacity: totalCapacity,
	}
	if err := r.apply(details); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r.createdAt = now
	r.updatedAt = now
	return r, nil
}

// Reconstruct rebuilds a Route from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name string,
	mode Mode,
	stops []string,
	pricePerSegmentCents int64,
	currency string,
	totalCapacity int,
	availableCapacity int,
	departureTime string,
	createdAt time.Time,
	updatedAt time.Time,
) *Route {
	return &Route{
		id:                   id,
		name:                 name,
		mode:                 mode,
		stops:                append([]string(nil), stops...),
		pricePerSegmentCents: pricePerSegmentCents,
		currency:             currency,
		totalCapacity:        totalCapacity,
		availableCapacity:    availableCapacity,
		departureTime:        departureTime,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// --- Getters ---

func (r *Route) ID() uuid.UUID { return r.id }
func (r *Route) Name() string { return r.name }
func (r *Route) Mode() Mode { return r.mode }
func (r *Route) PricePerSegmentCents() int64 { return r.pricePerSegmentCents }
func (r *Route) Currency() string { return r.currency }
func (r *Route) TotalCapacity() int { return r.totalCapacity }
func (r *Route) AvailableCapacity() int { return r.availableCapacity }
func (r *Route) DepartureTime() string { return r.departureTime }
func (r *Route) CreatedAt() time.Time { return r.createdAt }
func (r *Route) UpdatedAt() time.Time { return r.updatedAt }

// Stops returns a copy of the ordered stop names.
func (r *Route) Stops() []string { return append([]string(nil), r.stops...) }

// Origin returns the first stop.
func (r *Route) Origin() string {
	if len(r.stops) == 0 {
		return ""
	}
	return r.stops[0]
}

// Destination returns the last stop.
func (r *Route) Destination() string {
	if len(r.stops) == 0 {
		return ""
	}
	return r.stops[len(r.stops)-1]
}

// StopIndex returns the position of the first stop named name, or -1.
// Duplicate names resolve to their first occurrence.
func (r *Route) StopIndex(name string) int {
	for i, s := range r.stops {
		if s == name {
			return i
		}
	}
	return -1
}

// --- Behavior ---

// UpdateDetails replaces the editable catalog attributes. Capacity is not
// editable here.
func (r *Route) UpdateDetails(details Details) error {
	if err := r.apply(details); err != nil {
		return err
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

func (r *Route) apply(d Details) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return apperr.Validation("route name is required")
	}
	if !d.Mode.IsValid() {
		return apperr.Validation(fmt.Sprintf("invalid route mode: %q", d.Mode))
	}
	stops, err := normalizeStops(d.Stops)
	if err != nil {
		return err
	}
	if d.PricePerSegmentCents <= 0 {
		return ErrInvalidFareConfig.WithMessage("price per segment must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return apperr.Validation(fmt.Sprintf("invalid currency code: %q", d.Currency))
	}
	departure, err := normalizeDeparture(d.DepartureTime)
	if err != nil {
		return err
	}

	r.name = name
	r.mode = d.Mode
	r.stops = stops
	r.pricePerSegmentCents = d.PricePerSegmentCents
	r.currency = currency
	r.departureTime = departure
	return nil
}

func normalizeStops(stops []string) ([]string, error) {
	if len(stops) < 2 {
		return nil, apperr.Validation("a route needs at least two stops")
	}
	out := make([]string, len(stops))
	for i, s := range stops {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, apperr.Validation(fmt.Sprintf("stop %d has no name", i+1))
		}
		out[i] = s
	}
	return out, nil
}

func normalizeDeparture(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range departureLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("invalid departure time: %q", s))
}
