package application_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripseat/service-booking/internal/application"
	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/ledger"
	"github.com/tripseat/service-booking/internal/platform/apperr"
	"github.com/tripseat/service-booking/internal/testutil"
)

func newRouteService(t *testing.T) (*application.RouteService, *testutil.RouteRepo, *ledger.Striped) {
	t.Helper()
	routes := testutil.NewRouteRepo()
	l := ledger.NewStriped(routes, 4, zap.NewNop())
	return application.NewRouteService(routes, l, routeDomain.NewSegmentFareCalculator(), zap.NewNop()), routes, l
}

func sampleRouteRequest(name, mode string) application.CreateRouteRequest {
	return application.CreateRouteRequest{
		Name:                 name,
		Mode:                 mode,
		Stops:                []string{"Chennai", "Trichy", "Dindigul", "Madurai"},
		PricePerSegmentCents: 120,
		TotalCapacity:        40,
		DepartureTime:        "07:00 AM",
	}
}

func TestRouteService_CreateAndList(t *testing.T) {
	svc, _, _ := newRouteService(t)
	ctx := context.Background()

	bus, err := svc.CreateRoute(ctx, sampleRouteRequest("Bharat Deluxe", "bus"))
	require.NoError(t, err)
	assert.Equal(t, 40, bus.AvailableCapacity)
	assert.Equal(t, "07:00", bus.DepartureTime)
	assert.Equal(t, "INR", bus.Currency)
	assert.Equal(t, "Chennai", bus.Origin)
	assert.Equal(t, "Madurai", bus.Destination)

	_, err = svc.CreateRoute(ctx, sampleRouteRequest("TN Express", "Train"))
	require.NoError(t, err)

	trains, err := svc.ListRoutes(ctx, "train", 1, 20)
	require.NoError(t, err)
	require.Len(t, trains.Items, 1)
	assert.Equal(t, "TN Express", trains.Items[0].Name)

	all, err := svc.ListRoutes(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	_, err = svc.ListRoutes(ctx, "ferry", 1, 20)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRouteService_QuoteFare(t *testing.T) {
	svc, _, l := newRouteService(t)
	ctx := context.Background()

	rt, err := svc.CreateRoute(ctx, sampleRouteRequest("Bharat Deluxe", "bus"))
	require.NoError(t, err)
	require.NoError(t, l.Reserve(ctx, rt.ID, 5))

	quote, err := svc.QuoteFare(ctx, rt.ID, "Chennai", "Dindigul", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(480), quote.TotalCents)
	assert.Equal(t, 2, quote.Segments)
	assert.Equal(t, 35, quote.AvailableSeats)

	_, err = svc.QuoteFare(ctx, rt.ID, "Madurai", "Chennai", 1)
	assert.ErrorIs(t, err, routeDomain.ErrInvalidDirection)
}

func TestRouteService_UpsertRoute(t *testing.T) {
	svc, _, l := newRouteService(t)
	ctx := context.Background()
	id := uuid.New()

	created, isNew, err := svc.UpsertRoute(ctx, id, sampleRouteRequest("Greenline", "bus"))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, id, created.ID)

	require.NoError(t, l.Reserve(ctx, id, 3))

	req := sampleRouteRequest("Greenline Express", "bus")
	req.PricePerSegmentCents = 150
	req.TotalCapacity = 999
	updated, isNew, err := svc.UpsertRoute(ctx, id, req)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "Greenline Express", updated.Name)

	got, err := svc.GetRoute(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.PricePerSegmentCents)
	assert.Equal(t, 40, got.TotalCapacity)
	assert.Equal(t, 37, got.AvailableCapacity)
}

// staleRouteRepo misses the route on its first lookup, as a reader does
// while another upsert is inserting it.
type staleRouteRepo struct {
	*testutil.RouteRepo
	missed atomic.Bool
}

func (r *staleRouteRepo) FindByID(ctx context.Context, id uuid.UUID) (*routeDomain.Route, error) {
	if r.missed.CompareAndSwap(false, true) {
		return nil, routeDomain.ErrRouteNotFound
	}
	return r.RouteRepo.FindByID(ctx, id)
}

func TestRouteService_UpsertRoute_CreationRace(t *testing.T) {
	ctx := context.Background()

	t.Run("should update when the insert loses", func(t *testing.T) {
		svc, routes, _ := newRouteService(t)
		id := uuid.New()
		_, _, err := svc.UpsertRoute(ctx, id, sampleRouteRequest("Greenline", "bus"))
		require.NoError(t, err)

		stale := &staleRouteRepo{RouteRepo: routes}
		l := ledger.NewStriped(routes, 4, zap.NewNop())
		racing := application.NewRouteService(stale, l, routeDomain.NewSegmentFareCalculator(), zap.NewNop())

		dto, created, err := racing.UpsertRoute(ctx, id, sampleRouteRequest("Greenline Express", "bus"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Greenline Express", dto.Name)
	})

	t.Run("should create once under concurrent upserts", func(t *testing.T) {
		svc, _, _ := newRouteService(t)
		id := uuid.New()

		var createdCount atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := svc.UpsertRoute(ctx, id, sampleRouteRequest("Greenline", "bus"))
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if created {
					createdCount.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), createdCount.Load())
		got, err := svc.GetRoute(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 40, got.AvailableCapacity)
	})
}

func TestRouteService_UpdateRoute_Unknown(t *testing.T) {
	svc, _, _ := newRouteService(t)

	_, err := svc.UpdateRoute(context.Background(), uuid.New(), application.UpdateRouteRequest{
		Name:                 "Ghost",
		Mode:                 "bus",
		Stops:                []string{"A", "B"},
		PricePerSegmentCents: 10,
	})

	assert.ErrorIs(t, err, routeDomain.ErrRouteNotFound)
}
