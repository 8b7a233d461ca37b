package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/mocks"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

func TestCachedGeocoder(t *testing.T) {
	ctx := context.Background()
	hit := []domain.GeoPoint{{Lat: 44.85, Lng: 65.5, DisplayName: "Abay Street"}}

	t.Run("second lookup never reaches the provider", func(t *testing.T) {
		inner := mocks.NewMockGeocoder()
		cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

		inner.On("Search", mock.Anything, "улица Абая").Return(hit, nil).Once()

		first, err := cached.Search(ctx, "улица Абая")
		require.NoError(t, err)
		second, err := cached.Search(ctx, "улица Абая")
		require.NoError(t, err)

		assert.Equal(t, hit, first)
		assert.Equal(t, hit, second)
		inner.AssertNumberOfCalls(t, "Search", 1)
	})

	t.Run("empty results are not cached", func(t *testing.T) {
		inner := mocks.NewMockGeocoder()
		cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

		inner.On("Search", mock.Anything, "nowhere").Return([]domain.GeoPoint{}, nil)

		_, err := cached.Search(ctx, "nowhere")
		require.NoError(t, err)
		_, err = cached.Search(ctx, "nowhere")
		require.NoError(t, err)

		inner.AssertNumberOfCalls(t, "Search", 2)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := mocks.NewMockGeocoder()
		cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

		inner.On("Search", mock.Anything, "улица Абая").
			Return(nil, errors.New("timeout")).Once()
		inner.On("Search", mock.Anything, "улица Абая").
			Return(hit, nil).Once()

		_, err := cached.Search(ctx, "улица Абая")
		require.Error(t, err)

		points, err := cached.Search(ctx, "улица Абая")
		require.NoError(t, err)
		assert.Equal(t, hit, points)
	})

	t.Run("evicts least recently used entries", func(t *testing.T) {
		inner := mocks.NewMockGeocoder()
		cached := NewCachedGeocoder(inner, 2, observability.NewMetricsForTesting())

		inner.On("Search", mock.Anything, mock.Anything).Return(hit, nil)

		_, _ = cached.Search(ctx, "a")
		_, _ = cached.Search(ctx, "b")
		_, _ = cached.Search(ctx, "c") // evicts "a"
		_, _ = cached.Search(ctx, "a") // provider again

		inner.AssertNumberOfCalls(t, "Search", 4)
	})
}
