// Package catalog reads route definitions from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tripseat/service-booking/internal/application"
)

// namespace seeds deterministic ids for routes that do not declare one, so
// importing the same file twice updates rather than duplicates.
var namespace = uuid.MustParse("6f1c8f5e-4d0e-4e57-9a43-5b0e7d6a2c11")

// RouteEntry is one route in the catalog file.
type RouteEntry struct {
	ID                   string   `yaml:"id"`
	Name                 string   `yaml:"name"`
	Mode                 string   `yaml:"mode"`
	Stops                []string `yaml:"stops"`
	PricePerSegmentCents int64    `yaml:"price_per_segment_cents"`
	Currency             string   `yaml:"currency"`
	TotalSeats           int      `yaml:"total_seats"`
	DepartureTime        string   `yaml:"departure_time"`
}

// File is the top-level catalog document.
type File struct {
	Routes []RouteEntry `yaml:"routes"`
}

// Load reads and validates a catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &f, nil
}

// Validate checks the fields the service cannot default.
func (f *File) Validate() error {
	if len(f.Routes) == 0 {
		return errors.New("no routes defined")
	}
	seen := make(map[uuid.UUID]string, len(f.Routes))
	for i, r := range f.Routes {
		if r.Name == "" {
			return fmt.Errorf("routes[%d]: name is required", i)
		}
		if len(r.Stops) < 2 {
			return fmt.Errorf("routes[%d] %s: at least two stops are required", i, r.Name)
		}
		if r.TotalSeats <= 0 {
			return fmt.Errorf("routes[%d] %s: total_seats must be positive", i, r.Name)
		}
		id, err := r.RouteID()
		if err != nil {
			return fmt.Errorf("routes[%d] %s: %w", i, r.Name, err)
		}
		if other, dup := seen[id]; dup {
			return fmt.Errorf("routes[%d] %s: same id as %s", i, r.Name, other)
		}
		seen[id] = r.Name
	}
	return nil
}

// RouteID returns the declared id, or one derived from the name.
func (r RouteEntry) RouteID() (uuid.UUID, error) {
	if r.ID == "" {
		return uuid.NewSHA1(namespace, []byte(r.Name)), nil
	}
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", r.ID, err)
	}
	return id, nil
}

// Request converts the entry into a route creation request.
func (r RouteEntry) Request() application.CreateRouteRequest {
	return application.CreateRouteRequest{
		Name:                 r.Name,
		Mode:                 r.Mode,
		Stops:                r.Stops,
		PricePerSegmentCents: r.PricePerSegmentCents,
		Currency:             r.Currency,
		TotalCapacity:        r.TotalSeats,
		DepartureTime:        r.DepartureTime,
	}
}
