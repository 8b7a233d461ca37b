package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/kyzylorda-dev/incident-map-backend/internal/adapters/primary/http"
	mw "github.com/kyzylorda-dev/incident-map-backend/internal/adapters/primary/http/middleware"
	"github.com/kyzylorda-dev/incident-map-backend/internal/adapters/primary/websocket"
	"github.com/kyzylorda-dev/incident-map-backend/internal/adapters/secondary/gemini"
	"github.com/kyzylorda-dev/incident-map-backend/internal/adapters/secondary/nominatim"
	"github.com/kyzylorda-dev/incident-map-backend/internal/config"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/services"
	"github.com/kyzylorda-dev/incident-map-backend/internal/infrastructure/logging"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; extraction requests will fail until it is configured")
	}

	// 3. Initialize Metrics & Real-time Components
	metrics := observability.NewMetrics()
	hub := websocket.NewHub(metrics, logger)

	// 4. Initialize Rate Limiters
	var generalRateLimiter, extractionRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		extractionRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.ExtractionRPS,
			BurstSize:         cfg.RateLimit.ExtractionBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 5. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Secondary Adapters
	generator := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout, metrics, logger)

	geocoder := nominatim.NewClient(nominatim.Config{
		BaseURL:           cfg.Geocoding.BaseURL,
		UserAgent:         cfg.Geocoding.UserAgent,
		Timeout:           cfg.Geocoding.Timeout,
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
	}, metrics, logger)
	cachedGeocoder := nominatim.NewCachedGeocoder(geocoder, cfg.Geocoding.CacheSize, metrics)

	// Services (Core)
	resolver := services.NewResolver(cachedGeocoder, services.ResolverConfig{
		Bounds: domain.BoundingBox{
			LatMin: cfg.City.LatMin,
			LatMax: cfg.City.LatMax,
			LngMin: cfg.City.LngMin,
			LngMax: cfg.City.LngMax,
		},
		Center:        domain.Coordinates{Lat: cfg.City.CenterLat, Lng: cfg.City.CenterLng},
		JitterDegrees: cfg.City.JitterDegrees,
		CityNative:    cfg.City.NameNative,
		CityLatin:     cfg.City.NameLatin,
		CountryNative: cfg.City.CountryNative,
		CountryLatin:  cfg.City.CountryLatin,
		QueryTimeout:  cfg.Geocoding.Timeout,
	}, metrics, logger)

	normalizer := services.NewNormalizer(logger)

	promptParams := services.DefaultPromptParams()
	promptParams.City = cfg.City.NameLatin
	promptParams.Country = cfg.City.CountryLatin

	extractor := services.NewExtractor(generator, normalizer, resolver, services.ExtractorConfig{
		Provider:        "gemini",
		Model:           cfg.Gemini.Model,
		GenerateTimeout: cfg.Gemini.Timeout,
		Prompt:          promptParams,
	}, logger)

	// Handlers (Primary Adapters)
	incidentHandler := httpAdapter.NewIncidentHandler(extractor, hub, errorHandler, metrics, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(
		func() bool { return cfg.Gemini.APIKey != "" },
		hub.ClientCount,
		cfg.App.Version,
	)

	// 6. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         cfg.CORS.MaxAge,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints
	healthHandler.RegisterRoutes(r)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Extraction route with stricter rate limiting: every request costs a
	// generation API call.
	r.Group(func(r chi.Router) {
		if extractionRateLimiter != nil {
			r.Use(extractionRateLimiter.Middleware)
		}
		r.Post("/parse-news", incidentHandler.HandleParseNews)
	})

	r.Post("/broadcast-incident", incidentHandler.HandleBroadcastIncident)

	// WebSocket route for map observers
	r.Get("/ws", wsHandler.ServeHTTP)

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
