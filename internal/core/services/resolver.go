package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/ports"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

// ResolverConfig holds the geographic settings for the one configured city.
type ResolverConfig struct {
	Bounds        domain.BoundingBox
	Center        domain.Coordinates
	JitterDegrees float64
	CityNative    string // e.g. "Кызылорда"
	CityLatin     string // e.g. "Kyzylorda"
	CountryNative string // e.g. "Казахстан"
	CountryLatin  string // e.g. "Kazakhstan"
	QueryTimeout  time.Duration
}

// Street-type prefixes the geocoder matches better without.
var (
	nativeStreetPrefixes = []string{"улица", "ул."}
	latinStreetPrefixes  = []string{"street"}
)

// Resolver maps free-text location strings to coordinates inside the city
// bounding box. It balances recall (multiple query phrasings) against
// precision (rejecting same-named streets in other cities), and never fails:
// exhausted candidates degrade to the city-center fallback.
type Resolver struct {
	geocoder ports.Geocoder
	cfg      ResolverConfig
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ ports.LocationResolver = (*Resolver)(nil)

// NewResolver creates a location resolver.
func NewResolver(geocoder ports.Geocoder, cfg ResolverConfig, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	return &Resolver{
		geocoder: geocoder,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With("component", "resolver"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve tries each candidate phrasing in order and returns the first
// bounds-valid hit, or the jittered city center when every candidate is
// exhausted. Provider errors and timeouts count as "no result" for that
// candidate only.
func (r *Resolver) Resolve(ctx context.Context, locationText string) domain.ResolvedLocation {
	for _, query := range r.candidates(locationText) {
		coords, ok := r.tryCandidate(ctx, query)
		if !ok {
			continue
		}
		r.logger.Info("location geocoded",
			"location", locationText,
			"query", query,
			"lat", coords.Lat,
			"lng", coords.Lng,
		)
		return domain.ResolvedLocation{
			Coordinates: coords,
			Source:      domain.SourceGeocoded,
			Query:       query,
		}
	}

	r.metrics.GeocodeFallbacks.Inc()
	r.logger.Warn("geocoding degraded to city center", "location", locationText)
	return domain.ResolvedLocation{
		Coordinates: r.fallbackPoint(),
		Source:      domain.SourceFallback,
	}
}

// candidates builds the ordered query list: the raw text, the text qualified
// by city and country (native script and transliterated), and street-prefix
// stripped variants qualified by city.
func (r *Resolver) candidates(locationText string) []string {
	loc := strings.TrimSpace(locationText)

	raw := []string{
		loc,
		fmt.Sprintf("%s, %s, %s", loc, r.cfg.CityNative, r.cfg.CountryNative),
		fmt.Sprintf("%s, %s, %s", loc, r.cfg.CityLatin, r.cfg.CountryLatin),
	}
	if stripped := stripPrefixes(loc, nativeStreetPrefixes); stripped != "" && stripped != loc {
		raw = append(raw, fmt.Sprintf("%s, %s", stripped, r.cfg.CityNative))
	}
	if stripped := stripPrefixes(loc, latinStreetPrefixes); stripped != "" && stripped != loc {
		raw = append(raw, fmt.Sprintf("%s, %s", stripped, r.cfg.CityLatin))
	}

	// Deduplicate while preserving order; an empty location collapses
	// candidates into each other.
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(strings.Trim(strings.TrimSpace(q), ","))
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

func (r *Resolver) tryCandidate(ctx context.Context, query string) (domain.Coordinates, bool) {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	points, err := r.geocoder.Search(cctx, query)
	if err != nil {
		r.logger.Debug("geocode candidate failed", "query", query, "error", err)
		return domain.Coordinates{}, false
	}

	for _, p := range points {
		coords := domain.Coordinates{Lat: p.Lat, Lng: p.Lng}
		if !coords.Finite() {
			continue
		}
		if !r.cfg.Bounds.Contains(coords) {
			// Likely a same-named street in another city.
			r.logger.Debug("geocode hit outside city bounds",
				"query", query,
				"lat", coords.Lat,
				"lng", coords.Lng,
			)
			continue
		}
		return coords, true
	}
	return domain.Coordinates{}, false
}

// fallbackPoint returns the configured city center, perturbed by a small
// jitter so stacked unresolved incidents do not land on the same pixel.
// The jitter never pushes the point outside the bounding box.
func (r *Resolver) fallbackPoint() domain.Coordinates {
	point := r.cfg.Center
	if r.cfg.JitterDegrees > 0 {
		r.mu.Lock()
		point.Lat += (r.rng.Float64()*2 - 1) * r.cfg.JitterDegrees
		point.Lng += (r.rng.Float64()*2 - 1) * r.cfg.JitterDegrees
		r.mu.Unlock()
	}
	return r.cfg.Bounds.Clamp(point)
}

func stripPrefixes(s string, prefixes []string) string {
	lower := strings.ToLower(s)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}
