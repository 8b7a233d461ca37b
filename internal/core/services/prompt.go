package services

import (
	"fmt"
	"strings"
)

// PromptParams parameterizes the extraction prompt for one city. The event
// type list deliberately omits "other": it is the normalizer's downgrade
// bucket, not something the model should be invited to pick.
type PromptParams struct {
	City       string
	Country    string
	EventTypes []string
	Severities []string
}

// DefaultPromptParams returns the prompt configuration for Kyzylorda.
func DefaultPromptParams() PromptParams {
	return PromptParams{
		City:       "Kyzylorda",
		Country:    "Kazakhstan",
		EventTypes: []string{"road_work", "accident", "emergency", "repair", "road_closure"},
		Severities: []string{"low", "medium", "high", "critical"},
	}
}

const promptTemplate = `You are an assistant for %s city, %s. Extract incident information from news text.

EXAMPLE OUTPUT (copy this format exactly):
{"location": "улица Абая", "event_type": "road_work", "severity": "medium", "duration": "2 hours"}

RULES:
1. Extract the EXACT street/location name from the text (keep it in original language - Russian or Kazakh)
2. event_type options: %s
3. severity options: %s
4. duration: extract from text or "unknown"
5. summary: one short sentence describing the incident, or omit the field
6. Return ONLY valid JSON - no comments, no markdown, no extra text

NEWS TEXT:
"""%s"""`

// BuildPrompt renders the extraction prompt for the given news text.
func BuildPrompt(p PromptParams, newsText string) string {
	return fmt.Sprintf(promptTemplate,
		p.City,
		p.Country,
		quoteList(p.EventTypes),
		quoteList(p.Severities),
		newsText,
	)
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
