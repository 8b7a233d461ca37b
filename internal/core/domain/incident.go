package domain

// EventType is the canonical category of an incident shown on the map.
type EventType string

const (
	EventRoadWork    EventType = "road_work"
	EventAccident    EventType = "accident"
	EventEmergency   EventType = "emergency"
	EventRepair      EventType = "repair"
	EventRoadClosure EventType = "road_closure"
	EventOther       EventType = "other"
)

// Valid reports whether t is one of the canonical event types.
func (t EventType) Valid() bool {
	switch t {
	case EventRoadWork, EventAccident, EventEmergency, EventRepair, EventRoadClosure, EventOther:
		return true
	}
	return false
}

// Severity is the overall severity level of an incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the canonical severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

const (
	// DurationUnknown is substituted when the model reply carries no duration.
	DurationUnknown = "unknown"

	// DefaultSummary is substituted when the model reply carries no summary.
	DefaultSummary = "No additional details."
)

// IncidentDraft is the validated record recovered from a model reply,
// before the location has been resolved to coordinates. Immutable once
// produced by the normalizer.
type IncidentDraft struct {
	Location  string    `json:"location"`
	EventType EventType `json:"event_type"`
	Severity  Severity  `json:"severity"`
	Duration  string    `json:"duration"`
	Summary   string    `json:"summary,omitempty"`
}

// Provenance records which model produced the incident, for debugging
// and future tuning.
type Provenance struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Incident is the unit handed to the broadcast hub and returned to callers.
// Created per request and never persisted.
type Incident struct {
	Location    string      `json:"location"`
	EventType   EventType   `json:"event_type"`
	Severity    Severity    `json:"severity"`
	Duration    string      `json:"duration"`
	Summary     string      `json:"summary,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
	Provenance  Provenance  `json:"raw_model_response"`
}
