package domain

import "math"

// Coordinates is a latitude/longitude pair on the city map.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Finite reports whether both components are finite numbers.
func (c Coordinates) Finite() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// GeoPoint is a single hit returned by the geocoding provider.
type GeoPoint struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

// BoundingBox is the fixed rectangular range defining "inside the city".
type BoundingBox struct {
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64
}

// Contains reports whether c lies within the box.
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat > b.LatMin && c.Lat < b.LatMax &&
		c.Lng > b.LngMin && c.Lng < b.LngMax
}

// Clamp pulls c back inside the box if it has drifted past an edge.
func (b BoundingBox) Clamp(c Coordinates) Coordinates {
	c.Lat = math.Max(b.LatMin, math.Min(b.LatMax, c.Lat))
	c.Lng = math.Max(b.LngMin, math.Min(b.LngMax, c.Lng))
	return c
}

// ResolutionSource distinguishes a real geocoding hit from the city-center
// fallback. The coordinate shape is identical either way.
type ResolutionSource string

const (
	SourceGeocoded ResolutionSource = "geocoded"
	SourceFallback ResolutionSource = "fallback"
)

// ResolvedLocation is the outcome of resolving a free-text location.
type ResolvedLocation struct {
	Coordinates Coordinates
	Source      ResolutionSource
	// Query is the candidate phrasing that produced the hit. Empty on fallback.
	Query string
}
