package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/tripseat/service-booking/internal/domain/booking"
	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/platform/apperr"
	"github.com/tripseat/service-booking/internal/platform/kafka"
	"github.com/tripseat/service-booking/internal/platform/pagination"
	"github.com/tripseat/service-booking/internal/proto/events"
)

const eventSource = "service-booking"

// EventPublisher delivers CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to book seats on a route.
type CreateBookingRequest struct {
	RouteID     uuid.UUID `json:"route_id" binding:"required"`
	From        string    `json:"from" binding:"required"`
	To          string    `json:"to" binding:"required"`
	SeatCount   int       `json:"seat_count"`
	JourneyDate string    `json:"journey_date" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	BookingNumber string     `json:"booking_number"`
	UserID        uuid.UUID  `json:"user_id"`
	RouteID       uuid.UUID  `json:"route_id"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	SeatCount     int        `json:"seat_count"`
	PriceCents    int64      `json:"price_cents"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	JourneyDate   string     `json:"journey_date"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings            bookingDomain.BookingRepository
	routes              routeDomain.RouteRepository
	fares               routeDomain.FareCalculator
	ledger              routeDomain.CapacityLedger
	publisher           EventPublisher
	compensationTimeout time.Duration
	logger              *zap.Logger
}

// NewBookingService creates a new BookingService. compensationTimeout bounds
// seat releases that must finish after the caller has gone away.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	routes routeDomain.RouteRepository,
	fares routeDomain.FareCalculator,
	ledger routeDomain.CapacityLedger,
	publisher EventPublisher,
	compensationTimeout time.Duration,
	logger *zap.Logger,
) *BookingService {
	if compensationTimeout <= 0 {
		compensationTimeout = 5 * time.Second
	}
	return &BookingService{
		bookings:            bookings,
		routes:              routes,
		fares:               fares,
		ledger:              ledger,
		publisher:           publisher,
		compensationTimeout: compensationTimeout,
		logger:              logger,
	}
}

// CreateBooking prices the journey, reserves seats and stores a confirmed
// booking. Either all of it happens or, as far as the ledger can tell,
// none of it.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (_ *BookingDTO, err error) {
	journeyDate, err := bookingDomain.ParseJourneyDate(req.JourneyDate)
	if err != nil {
		return nil, err
	}

	rt, err := s.routes.FindByID(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}

	fare, err := s.fares.Calculate(rt, req.From, req.To, req.SeatCount)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		userID,
		rt.ID(),
		req.From,
		req.To,
		req.SeatCount,
		fare.TotalCents,
		rt.Currency(),
		journeyDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Reserve(ctx, rt.ID(), bk.SeatCount()); err != nil {
		_ = bk.Reject(err.Error())
		s.logger.Info("booking rejected",
			zap.String("route_id", rt.ID().String()),
			zap.Int("seats", bk.SeatCount()),
			zap.String("reason", apperr.CodeOf(err)),
		)
		return nil, err
	}

	// Seats stay reserved only once the booking is stored.
	reserved := true
	defer func() {
		if !reserved {
			return
		}
		if p := recover(); p != nil {
			s.releaseReserved(ctx, bk, fmt.Errorf("panic while storing booking: %v", p))
			panic(p)
		}
		s.releaseReserved(ctx, bk, err)
	}()

	if err = bk.Confirm(); err != nil {
		return nil, err
	}

	if err = s.bookings.Save(ctx, bk); err != nil {
		return nil, bookingDomain.ErrPersistenceFailure.Wrap(err)
	}
	reserved = false

	s.logger.Info("booking confirmed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("route_id", rt.ID().String()),
		zap.Int("seats", bk.SeatCount()),
		zap.Int64("price_cents", bk.PriceCents()),
	)

	s.publishEvent(ctx, events.BookingConfirmed, bk.ID().String(), events.BookingConfirmedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		UserID:        bk.UserID(),
		RouteID:       bk.RouteID(),
		FromStop:      bk.FromStop(),
		ToStop:        bk.ToStop(),
		SeatCount:     bk.SeatCount(),
		PriceCents:    bk.PriceCents(),
		Currency:      bk.Currency(),
		JourneyDate:   bk.JourneyDate().Format(bookingDomain.JourneyDateLayout),
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a confirmed booking and returns its seats. Only the
// booking's owner or an admin may cancel. The cancellation is stored before
// the seats are released, so two racing cancels release at most once. If the
// release fails the booking is put back to confirmed.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.UserID() != actorID && !isAdmin {
		return nil, apperr.Forbidden("booking does not belong to this user")
	}

	if err := bk.Cancel(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		if errors.Is(err, bookingDomain.ErrVersionConflict) {
			if current, findErr := s.bookings.FindByID(ctx, bookingID); findErr == nil &&
				current.Status() == bookingDomain.StatusCancelled {
				return nil, bookingDomain.ErrAlreadyCancelled.WithMessage(
					fmt.Sprintf("booking %s is already cancelled", current.BookingNumber()))
			}
		}
		return nil, err
	}

	releaseCtx, cancel := s.compensationContext(ctx)
	defer cancel()
	if err := s.ledger.Release(releaseCtx, bk.RouteID(), bk.SeatCount()); err != nil {
		if !errors.Is(err, routeDomain.ErrOverRelease) {
			return nil, s.reinstateCancelled(ctx, bk, err)
		}
		s.logger.Warn("release on cancel exceeded route total",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("route_id", bk.RouteID().String()),
		zap.Int("seats", bk.SeatCount()),
		zap.String("cancelled_by", actorID.String()),
	)

	s.publishEvent(ctx, events.BookingCancelled, bk.ID().String(), events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		UserID:        bk.UserID(),
		RouteID:       bk.RouteID(),
		SeatCount:     bk.SeatCount(),
		CancelledBy:   actorID,
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking visible to the actor.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.UserID() != actorID && !isAdmin {
		return nil, apperr.Forbidden("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetUserBookings retrieves paginated bookings for a specific user.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*pagination.Result[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	result := pagination.NewResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// compensationContext detaches from the caller's cancellation so that a
// release started on behalf of a request still completes.
func (s *BookingService) compensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
}

// releaseReserved undoes a successful Reserve whose booking was not stored.
func (s *BookingService) releaseReserved(ctx context.Context, bk *bookingDomain.Booking, cause error) {
	releaseCtx, cancel := s.compensationContext(ctx)
	defer cancel()

	fields := []zap.Field{
		zap.String("booking_id", bk.ID().String()),
		zap.String("route_id", bk.RouteID().String()),
		zap.Int("seats", bk.SeatCount()),
		zap.NamedError("cause", cause),
	}

	if err := s.ledger.Release(releaseCtx, bk.RouteID(), bk.SeatCount()); err != nil && !errors.Is(err, routeDomain.ErrOverRelease) {
		s.logger.Error("failed to release reserved seats, manual reconciliation required",
			append(fields, zap.Error(err))...)
		return
	}
	s.logger.Warn("released seats of unsaved booking", fields...)
}

// reinstateCancelled rolls a stored cancellation back to confirmed after the
// ledger refused to take the seats back, so the cancel can be retried.
func (s *BookingService) reinstateCancelled(ctx context.Context, bk *bookingDomain.Booking, releaseErr error) error {
	fields := []zap.Field{
		zap.String("booking_id", bk.ID().String()),
		zap.String("route_id", bk.RouteID().String()),
		zap.Int("seats", bk.SeatCount()),
		zap.NamedError("cause", releaseErr),
	}

	if err := bk.Reinstate(); err != nil {
		return apperr.Internal("failed to reinstate booking", err)
	}
	bk.IncrementVersion()

	revertCtx, cancel := s.compensationContext(ctx)
	defer cancel()
	if err := s.bookings.Update(revertCtx, bk); err != nil {
		s.logger.Error("cancelled booking kept its seats, manual reconciliation required",
			append(fields, zap.Error(err))...)
		return apperr.Internal("booking cancelled but seats were not released", releaseErr)
	}

	s.logger.Warn("seat release failed, booking reinstated", fields...)
	return apperr.Unavailable("seats could not be released, booking is still confirmed", releaseErr)
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		UserID:        bk.UserID(),
		RouteID:       bk.RouteID(),
		From:          bk.FromStop(),
		To:            bk.ToStop(),
		SeatCount:     bk.SeatCount(),
		PriceCents:    bk.PriceCents(),
		Currency:      bk.Currency(),
		Status:        string(bk.Status()),
		JourneyDate:   bk.JourneyDate().Format(bookingDomain.JourneyDateLayout),
		CancelledAt:   bk.CancelledAt(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	if err := s.publisher.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
