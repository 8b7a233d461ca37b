package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
)

func TestEventType_Valid(t *testing.T) {
	valid := []domain.EventType{
		domain.EventRoadWork,
		domain.EventAccident,
		domain.EventEmergency,
		domain.EventRepair,
		domain.EventRoadClosure,
		domain.EventOther,
	}
	for _, et := range valid {
		assert.True(t, et.Valid(), string(et))
	}

	assert.False(t, domain.EventType("").Valid())
	assert.False(t, domain.EventType("Accident").Valid())
	assert.False(t, domain.EventType("flood").Valid())
}

func TestSeverity_Valid(t *testing.T) {
	valid := []domain.Severity{
		domain.SeverityLow,
		domain.SeverityMedium,
		domain.SeverityHigh,
		domain.SeverityCritical,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), string(s))
	}

	assert.False(t, domain.Severity("").Valid())
	assert.False(t, domain.Severity("HIGH").Valid())
}

func TestBoundingBox_Contains(t *testing.T) {
	box := domain.BoundingBox{LatMin: 44.7, LatMax: 45.0, LngMin: 65.3, LngMax: 65.7}

	assert.True(t, box.Contains(domain.Coordinates{Lat: 44.85, Lng: 65.5}))

	// Edges count as outside: a hit exactly on the boundary is a different
	// place, not the city.
	assert.False(t, box.Contains(domain.Coordinates{Lat: 44.7, Lng: 65.5}))
	assert.False(t, box.Contains(domain.Coordinates{Lat: 45.0, Lng: 65.5}))
	assert.False(t, box.Contains(domain.Coordinates{Lat: 44.85, Lng: 65.3}))
	assert.False(t, box.Contains(domain.Coordinates{Lat: 44.85, Lng: 65.7}))

	// Same-named street in another city.
	assert.False(t, box.Contains(domain.Coordinates{Lat: 43.238, Lng: 76.945}))
}

func TestBoundingBox_Clamp(t *testing.T) {
	box := domain.BoundingBox{LatMin: 44.7, LatMax: 45.0, LngMin: 65.3, LngMax: 65.7}

	inside := domain.Coordinates{Lat: 44.85, Lng: 65.5}
	assert.Equal(t, inside, box.Clamp(inside))

	clamped := box.Clamp(domain.Coordinates{Lat: 46.0, Lng: 60.0})
	assert.Equal(t, domain.Coordinates{Lat: 45.0, Lng: 65.3}, clamped)
}

func TestCoordinates_Finite(t *testing.T) {
	assert.True(t, domain.Coordinates{Lat: 44.85, Lng: 65.5}.Finite())
	assert.False(t, domain.Coordinates{Lat: math.NaN(), Lng: 65.5}.Finite())
	assert.False(t, domain.Coordinates{Lat: 44.85, Lng: math.Inf(1)}.Finite())
}

func TestIncident_JSONShape(t *testing.T) {
	incident := domain.Incident{
		Location:    "улица Абая",
		EventType:   domain.EventAccident,
		Severity:    domain.SeverityHigh,
		Duration:    "2 hours",
		Summary:     "Two cars collided.",
		Coordinates: domain.Coordinates{Lat: 44.85, Lng: 65.5},
		Provenance:  domain.Provenance{Provider: "gemini", Model: "gemini-2.5-flash"},
	}

	raw, err := json.Marshal(incident)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// The wire shape the map frontend depends on.
	for _, key := range []string{"location", "event_type", "severity", "duration", "summary", "coordinates", "raw_model_response"} {
		assert.Contains(t, decoded, key)
	}
	coords := decoded["coordinates"].(map[string]any)
	assert.Equal(t, 44.85, coords["lat"])
	assert.Equal(t, 65.5, coords["lng"])
}
