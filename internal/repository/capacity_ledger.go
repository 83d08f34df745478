package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
)

// GormCapacityLedger keeps route capacity in the routes table. Reserve is a
// single conditional UPDATE, so the check and the decrement happen in one
// statement and hold across any number of service instances.
type GormCapacityLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ routeDomain.CapacityLedger = (*GormCapacityLedger)(nil)

// NewGormCapacityLedger creates a new GormCapacityLedger.
func NewGormCapacityLedger(db *gorm.DB, logger *zap.Logger) *GormCapacityLedger {
	return &GormCapacityLedger{db: db, logger: logger}
}

// Reserve takes seats from the route if enough are available.
func (l *GormCapacityLedger) Reserve(ctx context.Context, routeID uuid.UUID, seats int) error {
	if seats <= 0 {
		return routeDomain.ErrInvalidQuantity.WithMessage("seat count must be positive")
	}

	db := l.db.WithContext(ctx)
	result := db.Model(&RouteModel{}).
		Where("id = ? AND available_capacity >= ?", routeID, seats).
		UpdateColumn("available_capacity", gorm.Expr("available_capacity - ?", seats))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve capacity: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: either the route is gone or it is short of seats.
	c, err := loadCapacity(db, routeID)
	if err != nil {
		return err
	}
	return routeDomain.ErrInsufficientCapacity.WithMessage(
		fmt.Sprintf("requested %d seats, %d available", seats, c.Available))
}

// Release returns seats to the route, never exceeding its total.
func (l *GormCapacityLedger) Release(ctx context.Context, routeID uuid.UUID, seats int) error {
	if seats <= 0 {
		return routeDomain.ErrInvalidQuantity.WithMessage("seat count must be positive")
	}

	var overflow error
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row capacityRow
		if err := tx.Model(&RouteModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("total_capacity, available_capacity").
			Where("id = ?", routeID).
			Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return routeNotFound(routeID)
			}
			return fmt.Errorf("failed to lock capacity: %w", err)
		}

		next := row.AvailableCapacity + seats
		if next > row.TotalCapacity {
			overflow = routeDomain.ErrOverRelease.WithMessage(
				fmt.Sprintf("release of %d seats exceeds total %d (available %d)",
					seats, row.TotalCapacity, row.AvailableCapacity))
			l.logger.Error("capacity over-release clamped",
				zap.String("route_id", routeID.String()),
				zap.Int("seats", seats),
				zap.Int("available", row.AvailableCapacity),
				zap.Int("total", row.TotalCapacity),
			)
			next = row.TotalCapacity
		}
		if next == row.AvailableCapacity {
			return nil
		}

		if err := tx.Model(&RouteModel{}).
			Where("id = ?", routeID).
			UpdateColumn("available_capacity", next).Error; err != nil {
			return fmt.Errorf("failed to release capacity: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return overflow
}

// Available returns the current counter.
func (l *GormCapacityLedger) Available(ctx context.Context, routeID uuid.UUID) (int, error) {
	c, err := loadCapacity(l.db.WithContext(ctx), routeID)
	if err != nil {
		return 0, err
	}
	return c.Available, nil
}
