package route

import (
	"fmt"
	"math"
)

// FareCalculator prices a journey between two stops of a route.
type FareCalculator interface {
	// Calculate returns the fare for seats passengers travelling from -> to.
	Calculate(r *Route, from, to string, seats int) (Fare, error)
}

// Fare is the result of a price calculation.
type Fare struct {
	FromIndex            int   `json:"from_index"`
	ToIndex              int   `json:"to_index"`
	Segments             int   `json:"segments"`
	Seats                int   `json:"seats"`
	PricePerSegmentCents int64 `json:"price_per_segment_cents"`
	TotalCents           int64 `json:"total_cents"`
}

// SegmentFareCalculator charges a flat price per segment per seat, where a
// segment is the gap between two adjacent stops.
type SegmentFareCalculator struct{}

// NewSegmentFareCalculator creates a SegmentFareCalculator.
func NewSegmentFareCalculator() *SegmentFareCalculator {
	return &SegmentFareCalculator{}
}

// Calculate computes (toIndex - fromIndex) * pricePerSegment * seats in
// integer minor units. Checks run in a fixed order: stops, direction,
// quantity, fare configuration.
func (SegmentFareCalculator) Calculate(r *Route, from, to string, seats int) (Fare, error) {
	fromIndex := r.StopIndex(from)
	if fromIndex < 0 {
		return Fare{}, ErrInvalidStop.WithMessage(fmt.Sprintf("stop %q is not served by route %s", from, r.Name()))
	}
	toIndex := r.StopIndex(to)
	if toIndex < 0 {
		return Fare{}, ErrInvalidStop.WithMessage(fmt.Sprintf("stop %q is not served by route %s", to, r.Name()))
	}
	if fromIndex >= toIndex {
		return Fare{}, ErrInvalidDirection.WithMessage(fmt.Sprintf("cannot travel from %q to %q on route %s", from, to, r.Name()))
	}
	if seats <= 0 {
		return Fare{}, ErrInvalidQuantity.WithMessage("seat count must be positive")
	}
	if seats > r.TotalCapacity() {
		return Fare{}, ErrInvalidQuantity.WithMessage(fmt.Sprintf("seat count %d exceeds route capacity %d", seats, r.TotalCapacity()))
	}

	unit := r.PricePerSegmentCents()
	if unit <= 0 {
		return Fare{}, ErrInvalidFareConfig.WithMessage(fmt.Sprintf("route %s has non-positive price per segment", r.Name()))
	}

	segments := toIndex - fromIndex
	units := int64(segments) * int64(seats)
	if units <= 0 || unit > math.MaxInt64/units {
		return Fare{}, ErrInvalidFareConfig.WithMessage("fare exceeds representable amount")
	}

	return Fare{
		FromIndex:            fromIndex,
		ToIndex:              toIndex,
		Segments:             segments,
		Seats:                seats,
		PricePerSegmentCents: unit,
		TotalCents:           units * unit,
	}, nil
}
