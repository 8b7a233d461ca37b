package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	apperrors "github.com/kyzylorda-dev/incident-map-backend/internal/core/errors"
)

// Cleanup patterns for artifacts language models hallucinate into what
// should be plain JSON.
var (
	lineCommentRe   = regexp.MustCompile(`//[^\n]*`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// Normalizer turns a raw model reply into a validated IncidentDraft.
// Each cleanup step tolerates the imperfection of the previous one; parsing
// itself is strict and never guesses fields.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a response normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger.With("component", "normalizer")}
}

// Normalize cleans raw and parses it into a draft. Fails with a
// MalformedResponseError (carrying the original and cleaned text) when no
// valid record can be recovered.
func (n *Normalizer) Normalize(raw string) (*domain.IncidentDraft, error) {
	cleaned := cleanModelReply(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		n.logger.Warn("model reply is not valid JSON after cleanup",
			"error", err,
			"original", truncate(raw, 500),
			"cleaned", truncate(cleaned, 500),
		)
		return nil, &apperrors.MalformedResponseError{Original: raw, Cleaned: cleaned, Err: err}
	}

	draft := &domain.IncidentDraft{
		Location:  strings.TrimSpace(coerceString(fields["location"])),
		EventType: domain.EventType(strings.TrimSpace(coerceString(fields["event_type"]))),
		Severity:  domain.Severity(strings.TrimSpace(coerceString(fields["severity"]))),
		Duration:  strings.TrimSpace(coerceString(fields["duration"])),
		Summary:   strings.TrimSpace(coerceString(fields["summary"])),
	}

	// A record without a location cannot be placed on the map; that is the
	// one field we refuse to substitute.
	if draft.Location == "" {
		return nil, &apperrors.MalformedResponseError{
			Original: raw,
			Cleaned:  cleaned,
			Err:      errors.New("location field is missing or empty"),
		}
	}

	// Out-of-set categories downgrade to defaults: the map must always be
	// able to render something.
	if !draft.EventType.Valid() {
		n.logger.Debug("unknown event_type, downgrading", "event_type", draft.EventType)
		draft.EventType = domain.EventOther
	}
	if !draft.Severity.Valid() {
		n.logger.Debug("unknown severity, downgrading", "severity", draft.Severity)
		draft.Severity = domain.SeverityLow
	}
	if draft.Duration == "" {
		draft.Duration = domain.DurationUnknown
	}
	if draft.Summary == "" {
		draft.Summary = domain.DefaultSummary
	}

	return draft, nil
}

// cleanModelReply strips the decoration models wrap around JSON payloads:
// code fences, comments, trailing commas, and surrounding prose.
func cleanModelReply(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		lines = lines[1:]
		if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			lines = lines[:len(lines)-1]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	text = lineCommentRe.ReplaceAllString(text, "")
	text = blockCommentRe.ReplaceAllString(text, "")
	text = trailingCommaRe.ReplaceAllString(text, "$1")

	// Slice out the JSON object if prose surrounds it. Greedy: first "{" to
	// last "}" across newlines.
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	return strings.TrimSpace(text)
}

// coerceString best-effort converts a decoded JSON value to text. Models
// occasionally emit numbers or booleans where strings are expected.
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
