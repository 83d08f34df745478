// Package events holds the topic names, event types and payloads exchanged
// with other services over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicRouteEvents   = "route.events"
)

// Booking event types.
const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
)

// Route event types.
const (
	RouteUpserted = "route.upserted"
)

// BookingConfirmedEvent is published once a booking holds its seats.
type BookingConfirmedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	UserID        uuid.UUID `json:"user_id"`
	RouteID       uuid.UUID `json:"route_id"`
	FromStop      string    `json:"from_stop"`
	ToStop        string    `json:"to_stop"`
	SeatCount     int       `json:"seat_count"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency"`
	JourneyDate   string    `json:"journey_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published after a cancellation released its seats.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	UserID        uuid.UUID `json:"user_id"`
	RouteID       uuid.UUID `json:"route_id"`
	SeatCount     int       `json:"seat_count"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RouteUpsertedEvent carries a route definition from the catalog owner.
// TotalCapacity only applies when the route is new.
type RouteUpsertedEvent struct {
	RouteID              uuid.UUID `json:"route_id"`
	Name                 string    `json:"name"`
	Mode                 string    `json:"mode"`
	Stops                []string  `json:"stops"`
	PricePerSegmentCents int64     `json:"price_per_segment_cents"`
	Currency             string    `json:"currency"`
	TotalCapacity        int       `json:"total_capacity"`
	DepartureTime        string    `json:"departure_time"`
	OccurredAt           time.Time `json:"occurred_at"`
}
