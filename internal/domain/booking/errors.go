package booking

import "github.com/tripseat/service-booking/internal/platform/apperr"

var (
	ErrBookingNotFound    = apperr.New(apperr.KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrAlreadyCancelled   = apperr.New(apperr.KindConflict, "ALREADY_CANCELLED", "booking is already cancelled")
	ErrVersionConflict    = apperr.New(apperr.KindConflict, "VERSION_CONFLICT", "booking was modified by another transaction")
	ErrPersistenceFailure = apperr.New(apperr.KindInternal, "PERSISTENCE_FAILURE", "booking could not be stored")
)
