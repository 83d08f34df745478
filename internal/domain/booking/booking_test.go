package booking_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripseat/service-booking/internal/domain/booking"
	"github.com/tripseat/service-booking/internal/platform/apperr"
)

func newPending(t *testing.T) *booking.Booking {
	t.Helper()
	date, err := booking.ParseJourneyDate("2026-11-02")
	require.NoError(t, err)

	bk, err := booking.NewBooking(uuid.New(), uuid.New(), "A", "C", 2, 480, "INR", date)
	require.NoError(t, err)
	return bk
}

func TestNewBooking(t *testing.T) {
	t.Run("should start pending with a booking number", func(t *testing.T) {
		bk := newPending(t)

		assert.Equal(t, booking.StatusPending, bk.Status())
		assert.True(t, strings.HasPrefix(bk.BookingNumber(), "BK-"))
		assert.Len(t, bk.BookingNumber(), 9)
		assert.Equal(t, int64(1), bk.Version())
		assert.Equal(t, "2026-11-02", bk.JourneyDate().Format(booking.JourneyDateLayout))
	})

	t.Run("should validate inputs", func(t *testing.T) {
		date := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
		_, err := booking.NewBooking(uuid.Nil, uuid.New(), "A", "B", 1, 100, "INR", date)
		assert.Error(t, err)

		_, err = booking.NewBooking(uuid.New(), uuid.New(), "A", "B", 0, 100, "INR", date)
		assert.Error(t, err)

		_, err = booking.NewBooking(uuid.New(), uuid.New(), "A", "B", 1, 100, "INR", time.Time{})
		assert.Error(t, err)
	})

	t.Run("should reject malformed journey dates", func(t *testing.T) {
		_, err := booking.ParseJourneyDate("02/11/2026")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestBooking_Lifecycle(t *testing.T) {
	t.Run("should confirm then cancel without touching price", func(t *testing.T) {
		bk := newPending(t)
		require.NoError(t, bk.Confirm())
		require.NoError(t, bk.Cancel())

		assert.Equal(t, booking.StatusCancelled, bk.Status())
		assert.NotNil(t, bk.CancelledAt())
		assert.Equal(t, int64(480), bk.PriceCents())
	})

	t.Run("should report already cancelled on second cancel", func(t *testing.T) {
		bk := newPending(t)
		require.NoError(t, bk.Confirm())
		require.NoError(t, bk.Cancel())

		assert.ErrorIs(t, bk.Cancel(), booking.ErrAlreadyCancelled)
	})

	t.Run("should reinstate a cancelled booking", func(t *testing.T) {
		bk := newPending(t)
		require.NoError(t, bk.Confirm())
		require.NoError(t, bk.Cancel())
		require.NoError(t, bk.Reinstate())

		assert.Equal(t, booking.StatusConfirmed, bk.Status())
		assert.Nil(t, bk.CancelledAt())
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(bk.Reinstate()))
	})

	t.Run("should not cancel a pending booking", func(t *testing.T) {
		bk := newPending(t)
		err := bk.Cancel()
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("should not confirm a rejected booking", func(t *testing.T) {
		bk := newPending(t)
		require.NoError(t, bk.Reject("sold out"))

		assert.Equal(t, "sold out", bk.RejectReason())
		assert.Error(t, bk.Confirm())
	})
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, booking.StatusPending.CanTransitionTo(booking.StatusConfirmed))
	assert.True(t, booking.StatusConfirmed.CanTransitionTo(booking.StatusCancelled))
	assert.False(t, booking.StatusCancelled.CanTransitionTo(booking.StatusConfirmed))
	assert.False(t, booking.StatusConfirmed.CanTransitionTo(booking.StatusPending))
	assert.True(t, booking.StatusCancelled.IsTerminal())
	assert.True(t, booking.StatusRejected.IsTerminal())
	assert.False(t, booking.StatusPending.IsPersisted())

	_, err := booking.ParseBookingStatus("booked")
	assert.Error(t, err)
}
