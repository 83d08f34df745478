package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/ledger"
	"github.com/tripseat/service-booking/internal/platform/pagination"
)

// RouteModel is the GORM model for the routes table.
type RouteModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name                 string          `gorm:"not null;size:200"`
	Mode                 string          `gorm:"not null;size:10;index"`
	Stops                json.RawMessage `gorm:"type:jsonb;not null"`
	PricePerSegmentCents int64           `gorm:"not null"`
	Currency             string          `gorm:"not null;size:3"`
	TotalCapacity        int             `gorm:"not null"`
	AvailableCapacity    int             `gorm:"not null"`
	DepartureTime        string          `gorm:"size:5"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RouteModel) TableName() string {
	return "routes"
}

// GormRouteRepository stores the route catalog. It is also the durable
// capacity store behind the striped ledger.
type GormRouteRepository struct {
	db *gorm.DB
}

var (
	_ routeDomain.RouteRepository = (*GormRouteRepository)(nil)
	_ ledger.CapacityStore        = (*GormRouteRepository)(nil)
)

// NewGormRouteRepository creates a new GormRouteRepository.
func NewGormRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

// FindByID retrieves a route by its unique identifier.
func (r *GormRouteRepository) FindByID(ctx context.Context, id uuid.UUID) (*routeDomain.Route, error) {
	var model RouteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, routeNotFound(id)
		}
		return nil, fmt.Errorf("failed to find route by ID: %w", err)
	}
	return toDomainRoute(&model)
}

// List retrieves routes ordered by name; an empty mode matches every mode.
func (r *GormRouteRepository) List(ctx context.Context, mode routeDomain.Mode, page, limit int) ([]*routeDomain.Route, int64, error) {
	byMode := func(db *gorm.DB) *gorm.DB {
		if mode == "" {
			return db
		}
		return db.Where("mode = ?", string(mode))
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&RouteModel{}).Scopes(byMode).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	var models []RouteModel
	if err := r.db.WithContext(ctx).
		Scopes(byMode).
		Order("name ASC").
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}

	routes := make([]*routeDomain.Route, len(models))
	for i := range models {
		rt, err := toDomainRoute(&models[i])
		if err != nil {
			return nil, 0, err
		}
		routes[i] = rt
	}
	return routes, total, nil
}

// Save persists a new route including its initial capacity.
func (r *GormRouteRepository) Save(ctx context.Context, rt *routeDomain.Route) error {
	model, err := toRouteModel(rt)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return routeDomain.ErrRouteExists.WithMessage(fmt.Sprintf("route already exists: %s", model.ID))
		}
		return fmt.Errorf("failed to save route: %w", err)
	}
	return nil
}

// UpdateDetails persists catalog edits without writing capacity columns.
func (r *GormRouteRepository) UpdateDetails(ctx context.Context, rt *routeDomain.Route) error {
	model, err := toRouteModel(rt)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&RouteModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":                    model.Name,
			"mode":                    model.Mode,
			"stops":                   model.Stops,
			"price_per_segment_cents": model.PricePerSegmentCents,
			"currency":                model.Currency,
			"departure_time":          model.DepartureTime,
			"updated_at":              model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update route: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return routeNotFound(model.ID)
	}
	return nil
}

// LoadCapacity reads the capacity counters of a route.
func (r *GormRouteRepository) LoadCapacity(ctx context.Context, routeID uuid.UUID) (ledger.Capacity, error) {
	return loadCapacity(r.db.WithContext(ctx), routeID)
}

// StoreAvailable overwrites the available-capacity counter of a route.
func (r *GormRouteRepository) StoreAvailable(ctx context.Context, routeID uuid.UUID, available int) error {
	result := r.db.WithContext(ctx).
		Model(&RouteModel{}).
		Where("id = ?", routeID).
		UpdateColumn("available_capacity", available)
	if result.Error != nil {
		return fmt.Errorf("failed to store available capacity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return routeNotFound(routeID)
	}
	return nil
}

type capacityRow struct {
	TotalCapacity     int
	AvailableCapacity int
}

func loadCapacity(db *gorm.DB, routeID uuid.UUID) (ledger.Capacity, error) {
	var row capacityRow
	if err := db.Model(&RouteModel{}).
		Select("total_capacity, available_capacity").
		Where("id = ?", routeID).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.Capacity{}, routeNotFound(routeID)
		}
		return ledger.Capacity{}, fmt.Errorf("failed to load capacity: %w", err)
	}
	return ledger.Capacity{Total: row.TotalCapacity, Available: row.AvailableCapacity}, nil
}

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func routeNotFound(id uuid.UUID) error {
	return routeDomain.ErrRouteNotFound.WithMessage(fmt.Sprintf("route not found: %s", id))
}

// --- Conversion Helpers ---

func toRouteModel(rt *routeDomain.Route) (*RouteModel, error) {
	stopsJSON, err := json.Marshal(rt.Stops())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stops: %w", err)
	}

	return &RouteModel{
		ID:                   rt.ID(),
		Name:                 rt.Name(),
		Mode:                 string(rt.Mode()),
		Stops:                stopsJSON,
		PricePerSegmentCents: rt.PricePerSegmentCents(),
		Currency:             rt.Currency(),
		TotalCapacity:        rt.TotalCapacity(),
		AvailableCapacity:    rt.AvailableCapacity(),
		DepartureTime:        rt.DepartureTime(),
		CreatedAt:            rt.CreatedAt(),
		UpdatedAt:            rt.UpdatedAt(),
	}, nil
}

func toDomainRoute(m *RouteModel) (*routeDomain.Route, error) {
	var stops []string
	if err := json.Unmarshal(m.Stops, &stops); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stops: %w", err)
	}

	mode, err := routeDomain.ParseMode(m.Mode)
	if err != nil {
		return nil, err
	}

	return routeDomain.Reconstruct(
		m.ID,
		m.Name,
		mode,
		stops,
		m.PricePerSegmentCents,
		m.Currency,
		m.TotalCapacity,
		m.AvailableCapacity,
		m.DepartureTime,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
