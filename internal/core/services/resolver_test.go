package services_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/mocks"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/services"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

func testResolverConfig() services.ResolverConfig {
	return services.ResolverConfig{
		Bounds:        domain.BoundingBox{LatMin: 44.7, LatMax: 45.0, LngMin: 65.3, LngMax: 65.7},
		Center:        domain.Coordinates{Lat: 44.8488, Lng: 65.4823},
		JitterDegrees: 0.005,
		CityNative:    "Кызылорда",
		CityLatin:     "Kyzylorda",
		CountryNative: "Казахстан",
		CountryLatin:  "Kazakhstan",
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	cfg := testResolverConfig()

	t.Run("first bounds-valid hit wins", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		geocoder.On("Search", mock.Anything, "улица Абая").
			Return([]domain.GeoPoint{{Lat: 44.85, Lng: 65.5, DisplayName: "Abay Street"}}, nil)

		resolved := resolver.Resolve(ctx, "улица Абая")

		assert.Equal(t, domain.SourceGeocoded, resolved.Source)
		assert.Equal(t, 44.85, resolved.Coordinates.Lat)
		assert.Equal(t, 65.5, resolved.Coordinates.Lng)
		assert.Equal(t, "улица Абая", resolved.Query)
		geocoder.AssertNumberOfCalls(t, "Search", 1)
	})

	t.Run("out-of-bounds hit is rejected, next candidate tried", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		// Same-named street in Almaty, far outside the city box.
		geocoder.On("Search", mock.Anything, "улица Абая").
			Return([]domain.GeoPoint{{Lat: 43.238, Lng: 76.945}}, nil)
		geocoder.On("Search", mock.Anything, "улица Абая, Кызылорда, Казахстан").
			Return([]domain.GeoPoint{{Lat: 44.86, Lng: 65.48}}, nil)

		resolved := resolver.Resolve(ctx, "улица Абая")

		assert.Equal(t, domain.SourceGeocoded, resolved.Source)
		assert.Equal(t, 44.86, resolved.Coordinates.Lat)
		assert.Equal(t, "улица Абая, Кызылорда, Казахстан", resolved.Query)
	})

	t.Run("provider error counts as no result for that candidate", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		geocoder.On("Search", mock.Anything, "улица Абая").
			Return(nil, errors.New("connection refused"))
		geocoder.On("Search", mock.Anything, "улица Абая, Кызылорда, Казахстан").
			Return([]domain.GeoPoint{{Lat: 44.86, Lng: 65.48}}, nil)

		resolved := resolver.Resolve(ctx, "улица Абая")

		assert.Equal(t, domain.SourceGeocoded, resolved.Source)
		assert.Equal(t, 44.86, resolved.Coordinates.Lat)
	})

	t.Run("exhausted candidates fall back to jittered center", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		geocoder.On("Search", mock.Anything, mock.Anything).
			Return([]domain.GeoPoint{}, nil)

		resolved := resolver.Resolve(ctx, "улица Несуществующая")

		assert.Equal(t, domain.SourceFallback, resolved.Source)
		assert.InDelta(t, cfg.Center.Lat, resolved.Coordinates.Lat, cfg.JitterDegrees)
		assert.InDelta(t, cfg.Center.Lng, resolved.Coordinates.Lng, cfg.JitterDegrees)
	})

	t.Run("candidate order and street prefix stripping", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		var queries []string
		geocoder.On("Search", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				queries = append(queries, args.String(1))
			}).
			Return([]domain.GeoPoint{}, nil)

		resolver.Resolve(ctx, "улица Абая")

		require.Len(t, queries, 4)
		assert.Equal(t, []string{
			"улица Абая",
			"улица Абая, Кызылорда, Казахстан",
			"улица Абая, Kyzylorda, Kazakhstan",
			"Абая, Кызылорда",
		}, queries)
	})

	t.Run("empty location goes straight to fallback queries", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		var queries []string
		geocoder.On("Search", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				queries = append(queries, args.String(1))
			}).
			Return([]domain.GeoPoint{}, nil)

		resolved := resolver.Resolve(ctx, "   ")

		assert.Equal(t, domain.SourceFallback, resolved.Source)
		// The empty raw candidate collapses; only the city/country phrasings
		// remain.
		assert.Equal(t, []string{
			"Кызылорда, Казахстан",
			"Kyzylorda, Kazakhstan",
		}, queries)
	})

	t.Run("non-finite coordinates are skipped", func(t *testing.T) {
		geocoder := mocks.NewMockGeocoder()
		resolver := services.NewResolver(geocoder, cfg, observability.NewMetricsForTesting(), testLogger())

		geocoder.On("Search", mock.Anything, "улица Абая").
			Return([]domain.GeoPoint{{Lat: math.NaN(), Lng: 65.5}}, nil)
		geocoder.On("Search", mock.Anything, mock.Anything).
			Return([]domain.GeoPoint{}, nil)

		resolved := resolver.Resolve(ctx, "улица Абая")

		assert.Equal(t, domain.SourceFallback, resolved.Source)
	})
}
