package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripseat/service-booking/internal/platform/apperr"
)

const (
	bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// JourneyDateLayout is the wire format of journey dates.
	JourneyDateLayout = "2006-01-02"
)

// Booking is the aggregate root for a seat booking on a route.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	userID        uuid.UUID
	routeID       uuid.UUID
	fromStop      string
	toStop        string
	seatCount     int
	priceCents    int64
	currency      string
	status        BookingStatus
	journeyDate   time.Time
	rejectReason  string
	cancelledAt   *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// ParseJourneyDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseJourneyDate(s string) (time.Time, error) {
	d, err := time.Parse(JourneyDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid journey date %q, expected YYYY-MM-DD", s))
	}
	return d, nil
}

// NewBooking creates a pending Booking. The price is fixed here and never
// recalculated.
func NewBooking(
	userID uuid.UUID,
	routeID uuid.UUID,
	fromStop string,
	toStop string,
	seatCount int,
	priceCents int64,
	currency string,
	journeyDate time.Time,
) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, apperr.Validation("user ID is required")
	}
	if routeID == uuid.Nil {
		return nil, apperr.Validation("route ID is required")
	}
	if fromStop == "" || toStop == "" {
		return nil, apperr.Validation("origin and destination stops are required")
	}
	if seatCount <= 0 {
		return nil, apperr.Validation("seat count must be positive")
	}
	if priceCents <= 0 {
		return nil, apperr.Validation("price must be positive")
	}
	if journeyDate.IsZero() {
		return nil, apperr.Validation("journey date is required")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	y, m, d := journeyDate.Date()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		userID:        userID,
		routeID:       routeID,
		fromStop:      fromStop,
		toStop:        toStop,
		seatCount:     seatCount,
		priceCents:    priceCents,
		currency:      currency,
		status:        StatusPending,
		journeyDate:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	userID uuid.UUID,
	routeID uuid.UUID,
	fromStop string,
	toStop string,
	seatCount int,
	priceCents int64,
	currency string,
	status BookingStatus,
	journeyDate time.Time,
	cancelledAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		userID:        userID,
		routeID:       routeID,
		fromStop:      fromStop,
		toStop:        toStop,
		seatCount:     seatCount,
		priceCents:    priceCents,
		currency:      currency,
		status:        status,
		journeyDate:   journeyDate,
		cancelledAt:   cancelledAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// UserID returns the id of the user who made the booking.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// RouteID returns the booked route.
func (b *Booking) RouteID() uuid.UUID { return b.routeID }

// FromStop returns the boarding stop.
func (b *Booking) FromStop() string { return b.fromStop }

// ToStop returns the alighting stop.
func (b *Booking) ToStop() string { return b.toStop }

// SeatCount returns the number of seats held.
func (b *Booking) SeatCount() int { return b.seatCount }

// PriceCents returns the total price in minor currency units.
func (b *Booking) PriceCents() int64 { return b.priceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// JourneyDate returns the travel date (UTC midnight).
func (b *Booking) JourneyDate() time.Time { return b.journeyDate }

// RejectReason returns why a pending booking was rejected.
func (b *Booking) RejectReason() string { return b.rejectReason }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Confirm marks a pending booking as holding its seats.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return apperr.InvalidState(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Reject marks a pending booking as refused.
func (b *Booking) Reject(reason string) error {
	if !b.status.CanTransitionTo(StatusRejected) {
		return apperr.InvalidState(string(b.status), string(StatusRejected))
	}
	b.status = StatusRejected
	b.rejectReason = reason
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions a confirmed booking to cancelled.
func (b *Booking) Cancel() error {
	if b.status == StatusCancelled {
		return ErrAlreadyCancelled.WithMessage(fmt.Sprintf("booking %s is already cancelled", b.bookingNumber))
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return apperr.InvalidState(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// Reinstate undoes a cancellation whose seats could not be returned to the
// route, leaving the booking confirmed again.
func (b *Booking) Reinstate() error {
	if b.status != StatusCancelled {
		return apperr.InvalidState(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.cancelledAt = nil
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
