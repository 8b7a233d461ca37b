package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	apperrors "github.com/kyzylorda-dev/incident-map-backend/internal/core/errors"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/ports"
)

// ExtractorConfig identifies the generation model and bounds its call.
type ExtractorConfig struct {
	Provider        string
	Model           string
	GenerateTimeout time.Duration
	Prompt          PromptParams
}

// Extractor orchestrates the pipeline: prompt, generation call,
// normalization, location resolution, assembly. Exactly one generation call
// and a candidate-bounded number of geocoding calls per request.
type Extractor struct {
	generator  ports.TextGenerator
	normalizer *Normalizer
	resolver   ports.LocationResolver
	cfg        ExtractorConfig
	logger     *slog.Logger
}

var _ ports.IncidentService = (*Extractor)(nil)

// NewExtractor creates an incident extractor.
func NewExtractor(
	generator ports.TextGenerator,
	normalizer *Normalizer,
	resolver ports.LocationResolver,
	cfg ExtractorConfig,
	logger *slog.Logger,
) *Extractor {
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if len(cfg.Prompt.EventTypes) == 0 {
		cfg.Prompt = DefaultPromptParams()
	}
	return &Extractor{
		generator:  generator,
		normalizer: normalizer,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger.With("component", "extractor"),
	}
}

// Extract turns raw news text into an assembled Incident. Every field of the
// result derives from the normalized draft or a specified fallback constant;
// nothing is invented.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*domain.Incident, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, apperrors.ErrEmptyInput
	}

	prompt := BuildPrompt(e.cfg.Prompt, rawText)

	gctx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	reply, err := e.generator.Generate(gctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("%w: reply contains no text content", apperrors.ErrUpstreamUnavailable)
	}

	draft, err := e.normalizer.Normalize(reply)
	if err != nil {
		return nil, err
	}

	resolved := e.resolver.Resolve(ctx, draft.Location)
	e.logger.Info("incident extracted",
		"location", draft.Location,
		"event_type", draft.EventType,
		"severity", draft.Severity,
		"geo_source", resolved.Source,
	)

	return &domain.Incident{
		Location:    draft.Location,
		EventType:   draft.EventType,
		Severity:    draft.Severity,
		Duration:    draft.Duration,
		Summary:     draft.Summary,
		Coordinates: resolved.Coordinates,
		Provenance: domain.Provenance{
			Provider: e.cfg.Provider,
			Model:    e.cfg.Model,
		},
	}, nil
}
