package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kyzylorda-dev/incident-map-backend/internal/adapters/primary/validation"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	apperrors "github.com/kyzylorda-dev/incident-map-backend/internal/core/errors"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/ports"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

// maxNewsTextLength caps the raw report size; anything longer is noise, not
// a news item.
const maxNewsTextLength = 8192

// IncidentHandler handles HTTP requests for incident extraction and
// distribution.
type IncidentHandler struct {
	incidentService ports.IncidentService
	broadcaster     ports.EventBroadcaster
	errorHandler    *ErrorHandler
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(
	incidentService ports.IncidentService,
	broadcaster ports.EventBroadcaster,
	errorHandler *ErrorHandler,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		broadcaster:     broadcaster,
		errorHandler:    errorHandler,
		metrics:         metrics,
		logger:          logger.With("handler", "incident"),
	}
}

// RegisterRoutes sets up the routing for all incident endpoints.
func (h *IncidentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/parse-news", h.HandleParseNews)
	r.Post("/broadcast-incident", h.HandleBroadcastIncident)
}

// --- Request/Response DTOs ---

// ParseNewsRequest defines the expected JSON body for incident extraction
type ParseNewsRequest struct {
	Text string `json:"text"`
}

// Validate validates the parse news request. Emptiness is deliberately not
// checked here: an empty text is a domain condition the service reports as
// its own error, with its own status code.
func (r *ParseNewsRequest) Validate() error {
	v := validation.NewValidator()

	v.MaxLength("text", r.Text, maxNewsTextLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// BroadcastResponse reports a completed fan-out
type BroadcastResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// HandleParseNews extracts a structured incident from a raw news text.
// POST /parse-news
func (h *IncidentHandler) HandleParseNews(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[ParseNewsRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	if err := req.Validate(); HandleError(w, r, err, h.errorHandler) {
		return
	}

	incident, err := h.incidentService.Extract(r.Context(), req.Text)
	if err != nil {
		h.metrics.Extractions.WithLabelValues(extractionOutcome(err)).Inc()
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.metrics.Extractions.WithLabelValues("success").Inc()
	h.logger.Info("incident extracted",
		"request_id", GetRequestID(r.Context()),
		"event_type", incident.EventType,
		"severity", incident.Severity,
		"location", incident.Location,
	)

	WriteJSON(w, http.StatusOK, incident)
}

// HandleBroadcastIncident pushes an incident payload to every connected
// observer. The payload is relayed as-is; callers are trusted tooling on the
// same deployment.
// POST /broadcast-incident
func (h *IncidentHandler) HandleBroadcastIncident(w http.ResponseWriter, r *http.Request) {
	payload, err := validation.DecodeAndValidate[map[string]interface{}](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	count := h.broadcaster.Broadcast(domain.PushEvent{
		Type: domain.PushNewIncident,
		Data: *payload,
	})

	h.logger.Info("incident broadcast",
		"request_id", GetRequestID(r.Context()),
		"connections", count,
	)

	WriteJSON(w, http.StatusOK, BroadcastResponse{
		Status:      "broadcasted",
		Connections: count,
	})
}

// extractionOutcome maps an extraction error to a metrics label
func extractionOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, apperrors.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
