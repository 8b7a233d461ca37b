package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/ports"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client implements ports.Geocoder using the OpenStreetMap Nominatim API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	// Nominatim's usage policy caps anonymous clients at roughly one
	// request per second; the limiter enforces that across concurrent
	// resolutions.
	limiter *rate.Limiter
	metrics *observability.Metrics
	logger  *slog.Logger
}

var _ ports.Geocoder = (*Client)(nil)

// Config holds the Nominatim client settings.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewClient creates a Nominatim geocoding client.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "KyzylordaIncidentMap/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		metrics: metrics,
		logger:  logger.With("component", "nominatim"),
	}
}

// Search queries Nominatim for the best match of query. An empty result and
// a nil error means no match.
func (c *Client) Search(ctx context.Context, query string) ([]domain.GeoPoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, errBody)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	points := make([]domain.GeoPoint, 0, len(results))
	for _, r := range results {
		// Nominatim returns coordinates as strings.
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			c.logger.Debug("skipping unparseable geocode hit", "lat", r.Lat, "lon", r.Lon)
			continue
		}
		points = append(points, domain.GeoPoint{Lat: lat, Lng: lng, DisplayName: r.DisplayName})
	}

	if len(points) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return points, nil
}

// Nominatim API response type.

type result struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
