package ports

import (
	"context"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
)

// TextGenerator defines the port for the generation service: produce free
// text from a prompt, fallible, bounded by the caller's context.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Geocoder defines the port for the geocoding provider. An empty slice with
// a nil error means "no match"; the resolver treats errors the same way.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]domain.GeoPoint, error)
}

// LocationResolver maps a free-text location to coordinates. It never fails;
// it degrades to the configured city-center fallback instead.
type LocationResolver interface {
	Resolve(ctx context.Context, locationText string) domain.ResolvedLocation
}

// IncidentService defines the core extraction pipeline: raw news text in,
// assembled incident out.
type IncidentService interface {
	Extract(ctx context.Context, rawText string) (*domain.Incident, error)
}

// EventBroadcaster fans an event out to every currently connected observer
// and reports how many deliveries were attempted.
type EventBroadcaster interface {
	Broadcast(event domain.PushEvent) int
}
