package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	apperrors "github.com/kyzylorda-dev/incident-map-backend/internal/core/errors"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/mocks"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/services"
)

func testExtractorConfig() services.ExtractorConfig {
	return services.ExtractorConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		Prompt:   services.DefaultPromptParams(),
	}
}

func TestExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	newsText := "На улице Абая произошла авария, столкнулись два автомобиля"

	t.Run("full pipeline", func(t *testing.T) {
		generator := mocks.NewMockTextGenerator()
		resolver := mocks.NewMockLocationResolver()
		normalizer := services.NewNormalizer(testLogger())
		extractor := services.NewExtractor(generator, normalizer, resolver, testExtractorConfig(), testLogger())

		generator.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, newsText)
		})).Return(`{"location": "улица Абая", "event_type": "accident", "severity": "high", "duration": "2 hours", "summary": "Two cars collided."}`, nil)

		resolver.On("Resolve", mock.Anything, "улица Абая").
			Return(domain.ResolvedLocation{
				Coordinates: domain.Coordinates{Lat: 44.85, Lng: 65.5},
				Source:      domain.SourceGeocoded,
				Query:       "улица Абая",
			})

		incident, err := extractor.Extract(ctx, newsText)

		require.NoError(t, err)
		assert.Equal(t, "улица Абая", incident.Location)
		assert.Equal(t, domain.EventAccident, incident.EventType)
		assert.Equal(t, domain.SeverityHigh, incident.Severity)
		assert.Equal(t, "2 hours", incident.Duration)
		assert.Equal(t, "Two cars collided.", incident.Summary)
		assert.Equal(t, 44.85, incident.Coordinates.Lat)
		assert.Equal(t, 65.5, incident.Coordinates.Lng)
		assert.Equal(t, "gemini", incident.Provenance.Provider)
		assert.Equal(t, "gemini-2.5-flash", incident.Provenance.Model)

		generator.AssertNumberOfCalls(t, "Generate", 1)
		resolver.AssertExpectations(t)
	})

	t.Run("fallback coordinates are not an error", func(t *testing.T) {
		generator := mocks.NewMockTextGenerator()
		resolver := mocks.NewMockLocationResolver()
		normalizer := services.NewNormalizer(testLogger())
		extractor := services.NewExtractor(generator, normalizer, resolver, testExtractorConfig(), testLogger())

		generator.On("Generate", mock.Anything, mock.Anything).
			Return(`{"location": "улица Несуществующая", "event_type": "repair", "severity": "low"}`, nil)
		resolver.On("Resolve", mock.Anything, "улица Несуществующая").
			Return(domain.ResolvedLocation{
				Coordinates: domain.Coordinates{Lat: 44.8501, Lng: 65.4799},
				Source:      domain.SourceFallback,
			})

		incident, err := extractor.Extract(ctx, newsText)

		require.NoError(t, err)
		assert.Equal(t, 44.8501, incident.Coordinates.Lat)
	})

	t.Run("empty input fails before generation", func(t *testing.T) {
		generator := mocks.NewMockTextGenerator()
		resolver := mocks.NewMockLocationResolver()
		normalizer := services.NewNormalizer(testLogger())
		extractor := services.NewExtractor(generator, normalizer, resolver, testExtractorConfig(), testLogger())

		incident, err := extractor.Extract(ctx, "   \n\t ")

		assert.Nil(t, incident)
		assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
		generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("generator error maps to upstream unavailable", func(t *testing.T) {
		generator := mocks.NewMockTextGenerator()
		resolver := mocks.NewMockLocationResolver()
		normalizer := services.NewNormalizer(testLogger())
		extractor := services.NewExtractor(generator, normalizer, resolver, testExtractorConfig(), testLogger())

		generator.On("Generate", mock.Anything, mock.Anything).
			Return("", errors.New("status 503"))

		incident, err := extractor.Extract(ctx, newsText)

		assert.Nil(t, incident)
		assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("blank reply maps to upstream unavailable", func(t *testing.T) {
		generator := mocks.NewMockTextGenerator()
		resolver := mocks.NewMockLocationResolver()
		normalizer := services.NewNormalizer(testLogger())
		extractor := services.NewExtractor(generator, normalizer, resolver, testExtractorConfig(), testLogger())

		generator.On("Generate", mock.Anything, mock.Anything).Return("  \n ", nil)

		incident, err := extractor.Extract(ctx, newsText)

		assert.Nil(t, incident)
		assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	})

	t.Run("prose refusal maps to malformed response", func(t *testing.T) {
		generator := mocks.NewMockTextGenerator()
		resolver := mocks.NewMockLocationResolver()
		normalizer := services.NewNormalizer(testLogger())
		extractor := services.NewExtractor(generator, normalizer, resolver, testExtractorConfig(), testLogger())

		generator.On("Generate", mock.Anything, mock.Anything).
			Return("Sorry, I cannot help with that.", nil)

		incident, err := extractor.Extract(ctx, newsText)

		assert.Nil(t, incident)
		assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})
}

func TestBuildPrompt(t *testing.T) {
	params := services.DefaultPromptParams()
	prompt := services.BuildPrompt(params, "авария на мосту")

	assert.Contains(t, prompt, "авария на мосту")
	assert.Contains(t, prompt, "Kyzylorda")
	for _, et := range []string{"road_work", "accident", "emergency", "repair", "road_closure"} {
		assert.Contains(t, prompt, et)
	}
}
