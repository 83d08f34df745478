package route_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripseat/service-booking/internal/domain/route"
)

func abcdRoute(t *testing.T) *route.Route {
	t.Helper()
	r, err := route.NewRoute(route.Details{
		Name:                 "Bharat Deluxe",
		Mode:                 route.ModeBus,
		Stops:                []string{"A", "B", "C", "D"},
		PricePerSegmentCents: 120,
		DepartureTime:        "07:00 AM",
	}, 40)
	require.NoError(t, err)
	return r
}

func TestSegmentFareCalculator_Calculate(t *testing.T) {
	calc := route.NewSegmentFareCalculator()

	t.Run("should price two segments for two seats", func(t *testing.T) {
		fare, err := calc.Calculate(abcdRoute(t), "A", "C", 2)
		require.NoError(t, err)

		assert.Equal(t, int64(480), fare.TotalCents)
		assert.Equal(t, 2, fare.Segments)
		assert.Equal(t, 0, fare.FromIndex)
		assert.Equal(t, 2, fare.ToIndex)
	})

	t.Run("should return identical fares for identical inputs", func(t *testing.T) {
		r := abcdRoute(t)
		first, err := calc.Calculate(r, "B", "D", 3)
		require.NoError(t, err)
		second, err := calc.Calculate(r, "B", "D", 3)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("should strictly increase with the destination index", func(t *testing.T) {
		r := abcdRoute(t)
		var previous int64
		for _, to := range []string{"B", "C", "D"} {
			fare, err := calc.Calculate(r, "A", to, 1)
			require.NoError(t, err)
			assert.Greater(t, fare.TotalCents, previous, "fare to %s", to)
			previous = fare.TotalCents
		}
	})

	t.Run("should reject unknown stops", func(t *testing.T) {
		_, err := calc.Calculate(abcdRoute(t), "A", "Z", 1)
		assert.ErrorIs(t, err, route.ErrInvalidStop)

		_, err = calc.Calculate(abcdRoute(t), "Z", "A", 1)
		assert.ErrorIs(t, err, route.ErrInvalidStop)
	})

	t.Run("should reject reverse and same-stop journeys", func(t *testing.T) {
		_, err := calc.Calculate(abcdRoute(t), "C", "A", 1)
		assert.ErrorIs(t, err, route.ErrInvalidDirection)

		_, err = calc.Calculate(abcdRoute(t), "B", "B", 1)
		assert.ErrorIs(t, err, route.ErrInvalidDirection)
	})

	t.Run("should reject non-positive and oversized seat counts", func(t *testing.T) {
		_, err := calc.Calculate(abcdRoute(t), "A", "B", 0)
		assert.ErrorIs(t, err, route.ErrInvalidQuantity)

		_, err = calc.Calculate(abcdRoute(t), "A", "B", -2)
		assert.ErrorIs(t, err, route.ErrInvalidQuantity)

		_, err = calc.Calculate(abcdRoute(t), "A", "B", 41)
		assert.ErrorIs(t, err, route.ErrInvalidQuantity)
	})

	t.Run("should reject malformed stored fare configuration", func(t *testing.T) {
		now := time.Now()
		bad := route.Reconstruct(uuid.New(), "Broken", route.ModeBus, []string{"A", "B"}, 0, "INR", 10, 10, "", now, now)
		_, err := calc.Calculate(bad, "A", "B", 1)
		assert.ErrorIs(t, err, route.ErrInvalidFareConfig)

		huge := route.Reconstruct(uuid.New(), "Huge", route.ModeBus, []string{"A", "B", "C"}, math.MaxInt64/2, "INR", 10, 10, "", now, now)
		_, err = calc.Calculate(huge, "A", "C", 2)
		assert.ErrorIs(t, err, route.ErrInvalidFareConfig)
	})

	t.Run("should resolve duplicate stop names to their first occurrence", func(t *testing.T) {
		now := time.Now()
		loop := route.Reconstruct(uuid.New(), "Loop", route.ModeBus, []string{"A", "B", "A", "C"}, 100, "INR", 10, 10, "", now, now)
		fare, err := calc.Calculate(loop, "A", "C", 1)
		require.NoError(t, err)
		assert.Equal(t, 3, fare.Segments)
	})
}
