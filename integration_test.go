//go:build integration

package main_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripseat/service-booking/internal/application"
	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/proto/events"
)

// TestBookAndCancel_PersistsAndPublishes books two seats against Postgres,
// checks the capacity column and the confirmation event, then cancels.
func TestBookAndCancel_PersistsAndPublishes(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	routeID := seedRoute(t, stack.Routes, 40)
	userID := uuid.New()

	bk, err := stack.Bookings.CreateBooking(ctx, userID, application.CreateBookingRequest{
		RouteID:     routeID,
		From:        "Pune",
		To:          "Mumbai",
		SeatCount:   2,
		JourneyDate: "2026-11-02",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(72000), bk.PriceCents)
	assert.Equal(t, "confirmed", bk.Status)
	assert.Equal(t, 38, availableSeats(t, infra.DB, routeID))

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingConfirmed, 15*time.Second)
	var confirmed events.BookingConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, bk.ID, confirmed.BookingID)
	assert.Equal(t, 2, confirmed.SeatCount)

	cancelled, err := stack.Bookings.CancelBooking(ctx, bk.ID, userID, false)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, int64(72000), cancelled.PriceCents)
	assert.Equal(t, 40, availableSeats(t, infra.DB, routeID))

	_, err = stack.Bookings.CancelBooking(ctx, bk.ID, userID, false)
	assert.Error(t, err)
	assert.Equal(t, 40, availableSeats(t, infra.DB, routeID))
}

// TestConcurrentBookings_NeverOversell races single-seat bookings against the
// conditional UPDATE and checks the database never goes below zero.
func TestConcurrentBookings_NeverOversell(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	routeID := seedRoute(t, stack.Routes, 10)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		refused   atomic.Int32
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stack.Bookings.CreateBooking(context.Background(), uuid.New(), application.CreateBookingRequest{
				RouteID:     routeID,
				From:        "Lonavala",
				To:          "Panvel",
				SeatCount:   1,
				JourneyDate: "2026-11-02",
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, routeDomain.ErrInsufficientCapacity):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), succeeded.Load())
	assert.Equal(t, int32(20), refused.Load())
	assert.Equal(t, 0, availableSeats(t, infra.DB, routeID))

	var confirmed int64
	require.NoError(t, infra.DB.Table("bookings").
		Where("route_id = ? AND status = ?", routeID, "confirmed").
		Count(&confirmed).Error)
	assert.Equal(t, int64(10), confirmed)
}

// TestRouteUpserted_SyncsCatalog verifies that a route.upserted event creates
// a route and that a later upsert leaves its capacity untouched.
func TestRouteUpserted_SyncsCatalog(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	routeID := uuid.New()
	evt := events.RouteUpsertedEvent{
		RouteID:              routeID,
		Name:                 "Deccan Queen",
		Mode:                 "train",
		Stops:                []string{"Pune", "Lonavala", "Mumbai"},
		PricePerSegmentCents: 9000,
		Currency:             "INR",
		TotalCapacity:        120,
		DepartureTime:        "07:15",
		OccurredAt:           time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicRouteEvents,
		"service-catalog", events.RouteUpserted, evt)

	require.Eventually(t, func() bool {
		_, err := stack.RouteRepo.FindByID(context.Background(), routeID)
		return err == nil
	}, 15*time.Second, 200*time.Millisecond, "route was not created from event")

	_, err := stack.Bookings.CreateBooking(context.Background(), uuid.New(), application.CreateBookingRequest{
		RouteID:     routeID,
		From:        "Pune",
		To:          "Lonavala",
		SeatCount:   3,
		JourneyDate: "2026-11-02",
	})
	require.NoError(t, err)

	evt.PricePerSegmentCents = 9500
	evt.OccurredAt = time.Now().UTC()
	publishTestEvent(t, infra.KafkaBrokers, events.TopicRouteEvents,
		"service-catalog", events.RouteUpserted, evt)

	require.Eventually(t, func() bool {
		rt, err := stack.RouteRepo.FindByID(context.Background(), routeID)
		return err == nil && rt.PricePerSegmentCents() == 9500
	}, 15*time.Second, 200*time.Millisecond, "route was not updated from event")
	assert.Equal(t, 117, availableSeats(t, infra.DB, routeID))
}
