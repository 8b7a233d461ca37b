package domain

// PushType defines the type of real-time event.
type PushType string

const (
	PushNewIncident PushType = "new_incident"
	PushPing        PushType = "ping"
)

// PushEvent is the payload sent over WebSocket to connected observers.
type PushEvent struct {
	Type   PushType `json:"type"`
	Data   any      `json:"data,omitempty"`
	Status string   `json:"status,omitempty"`
}
