package services_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	apperrors "github.com/kyzylorda-dev/incident-map-backend/internal/core/errors"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizer_Normalize(t *testing.T) {
	n := services.NewNormalizer(testLogger())

	cleanReply := `{"location": "улица Абая", "event_type": "accident", "severity": "high", "duration": "2 hours", "summary": "Two cars collided."}`

	t.Run("clean JSON", func(t *testing.T) {
		draft, err := n.Normalize(cleanReply)

		require.NoError(t, err)
		assert.Equal(t, "улица Абая", draft.Location)
		assert.Equal(t, domain.EventAccident, draft.EventType)
		assert.Equal(t, domain.SeverityHigh, draft.Severity)
		assert.Equal(t, "2 hours", draft.Duration)
		assert.Equal(t, "Two cars collided.", draft.Summary)
	})

	t.Run("equivalent decorated replies", func(t *testing.T) {
		want, err := n.Normalize(cleanReply)
		require.NoError(t, err)

		variants := map[string]string{
			"fenced":         "```json\n" + cleanReply + "\n```",
			"fenced no lang": "```\n" + cleanReply + "\n```",
			"line comment": `{"location": "улица Абая", // street name
				"event_type": "accident", "severity": "high", "duration": "2 hours", "summary": "Two cars collided."}`,
			"block comment":  `/* extracted */ ` + cleanReply,
			"trailing comma": `{"location": "улица Абая", "event_type": "accident", "severity": "high", "duration": "2 hours", "summary": "Two cars collided.",}`,
			"surrounding prose": "Here is the incident you asked for:\n" + cleanReply +
				"\nLet me know if you need anything else.",
		}

		for name, raw := range variants {
			t.Run(name, func(t *testing.T) {
				draft, err := n.Normalize(raw)
				require.NoError(t, err)
				assert.Equal(t, want, draft)
			})
		}
	})

	t.Run("unparseable reply carries diagnostics", func(t *testing.T) {
		raw := "Sorry, I cannot help with that."

		draft, err := n.Normalize(raw)

		assert.Nil(t, draft)
		assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)

		var malformed *apperrors.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, raw, malformed.Original)
		assert.NotEmpty(t, malformed.Cleaned)
	})

	t.Run("missing location is malformed", func(t *testing.T) {
		draft, err := n.Normalize(`{"event_type": "accident", "severity": "high"}`)

		assert.Nil(t, draft)
		assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	})

	t.Run("empty location is malformed", func(t *testing.T) {
		draft, err := n.Normalize(`{"location": "   ", "event_type": "accident"}`)

		assert.Nil(t, draft)
		assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	})

	t.Run("unknown categories downgrade to defaults", func(t *testing.T) {
		draft, err := n.Normalize(`{"location": "улица Абая", "event_type": "alien invasion", "severity": "apocalyptic"}`)

		require.NoError(t, err)
		assert.Equal(t, domain.EventOther, draft.EventType)
		assert.Equal(t, domain.SeverityLow, draft.Severity)
	})

	t.Run("missing optional fields get fallback constants", func(t *testing.T) {
		draft, err := n.Normalize(`{"location": "улица Абая", "event_type": "accident", "severity": "low"}`)

		require.NoError(t, err)
		assert.Equal(t, domain.DurationUnknown, draft.Duration)
		assert.Equal(t, domain.DefaultSummary, draft.Summary)
	})

	t.Run("null duration falls back to unknown", func(t *testing.T) {
		draft, err := n.Normalize(`{"location": "улица Абая", "event_type": "accident", "severity": "low", "duration": null}`)

		require.NoError(t, err)
		assert.Equal(t, domain.DurationUnknown, draft.Duration)
	})

	t.Run("non-string values are coerced", func(t *testing.T) {
		draft, err := n.Normalize(`{"location": "улица Абая", "event_type": "accident", "severity": "low", "duration": 2}`)

		require.NoError(t, err)
		assert.Equal(t, "2", draft.Duration)
	})
}
