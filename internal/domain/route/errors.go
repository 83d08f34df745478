package route

import "github.com/tripseat/service-booking/internal/platform/apperr"

var (
	ErrRouteNotFound        = apperr.New(apperr.KindNotFound, "ROUTE_NOT_FOUND", "route not found")
	ErrRouteExists          = apperr.New(apperr.KindConflict, "ROUTE_EXISTS", "route already exists")
	ErrInvalidStop          = apperr.New(apperr.KindValidation, "INVALID_STOP", "stop is not served by this route")
	ErrInvalidDirection     = apperr.New(apperr.KindValidation, "INVALID_DIRECTION", "destination stop must come after the origin stop")
	ErrInvalidQuantity      = apperr.New(apperr.KindValidation, "INVALID_QUANTITY", "seat count is out of range")
	ErrInvalidFareConfig    = apperr.New(apperr.KindValidation, "INVALID_FARE_CONFIG", "route fare configuration is invalid")
	ErrInsufficientCapacity = apperr.New(apperr.KindConflict, "INSUFFICIENT_CAPACITY", "not enough available seats")

	// ErrOverRelease means more seats were released than were held. The
	// ledger clamps capacity at the route total and still reports this.
	ErrOverRelease = apperr.New(apperr.KindConflict, "OVER_RELEASE", "released seats exceed reserved seats")
)
