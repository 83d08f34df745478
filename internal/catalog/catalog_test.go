package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
routes:
  - name: Bharat Deluxe
    mode: bus
    stops: [Chennai, Trichy, Dindigul, Madurai]
    price_per_segment_cents: 12000
    total_seats: 40
    departure_time: "07:00 AM"
  - id: 0b7e2a52-5f0c-4a53-8d7a-3f61a5d1c001
    name: Chennai Mail
    mode: train
    stops: [Chennai, Vellore, Bangalore]
    price_per_segment_cents: 15000
    total_seats: 90
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Routes, 2)

	req := f.Routes[0].Request()
	assert.Equal(t, "Bharat Deluxe", req.Name)
	assert.Equal(t, 40, req.TotalCapacity)
	assert.Equal(t, int64(12000), req.PricePerSegmentCents)

	id, err := f.Routes[1].RouteID()
	require.NoError(t, err)
	assert.Equal(t, "0b7e2a52-5f0c-4a53-8d7a-3f61a5d1c001", id.String())
}

func TestRouteID_IsStableForUnnamedIDs(t *testing.T) {
	a, err := RouteEntry{Name: "Greenline Travels"}.RouteID()
	require.NoError(t, err)
	b, err := RouteEntry{Name: "Greenline Travels"}.RouteID()
	require.NoError(t, err)
	c, err := RouteEntry{Name: "Parveen Tours"}.RouteID()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "routes: []",
		"one stop":  "routes:\n  - name: X\n    stops: [A]\n    total_seats: 1\n",
		"no seats":  "routes:\n  - name: X\n    stops: [A, B]\n",
		"bad id":    "routes:\n  - id: nope\n    name: X\n    stops: [A, B]\n    total_seats: 1\n",
		"duplicate": "routes:\n  - name: X\n    stops: [A, B]\n    total_seats: 1\n  - name: X\n    stops: [A, B]\n    total_seats: 1\n",
		"not yaml":  "routes: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_SeedFile(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "configs", "routes.yaml"))
	require.NoError(t, err)
	assert.Len(t, f.Routes, 10)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
