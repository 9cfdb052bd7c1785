package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osintlab/conflictmap/pkg/models"
)

func TestDistance(t *testing.T) {
	kyiv := &models.Coordinate{Lat: 50.4501, Lon: 30.5234}
	kharkiv := &models.Coordinate{Lat: 49.9935, Lon: 36.2304}
	odesa := &models.Coordinate{Lat: 46.4825, Lon: 30.7233}

	tests := []struct {
		a, b   *models.Coordinate
		name   string
		wantKm float64
		tolKm  float64
	}{
		{name: "same point", a: kyiv, b: kyiv, wantKm: 0, tolKm: 0.001},
		{name: "kyiv to kharkiv", a: kyiv, b: kharkiv, wantKm: 409, tolKm: 5},
		{name: "kyiv to odesa", a: kyiv, b: odesa, wantKm: 441, tolKm: 5},
		{name: "antipodal-ish span", a: &models.Coordinate{Lat: 0, Lon: 0}, b: &models.Coordinate{Lat: 0, Lon: 180}, wantKm: math.Pi * EarthRadiusKm, tolKm: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			assert.InDelta(t, tt.wantKm, got, tt.tolKm)
			assert.Equal(t, got, Distance(tt.b, tt.a), "distance must be symmetric")
		})
	}
}

func TestDistanceMissingCoordinate(t *testing.T) {
	kyiv := &models.Coordinate{Lat: 50.4501, Lon: 30.5234}

	assert.True(t, math.IsInf(Distance(nil, kyiv), 1))
	assert.True(t, math.IsInf(Distance(kyiv, nil), 1))
	assert.True(t, math.IsInf(Distance(nil, nil), 1))
}
