package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Gemini generation API configuration
	Gemini GeminiConfig

	// Geocoding (Nominatim) configuration
	Geocoding GeocodingConfig

	// City geography: bounds, center and fallback jitter
	City CityConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// CORS configuration
	CORS CORSConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// GeminiConfig holds generation API configuration
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeocodingConfig holds Nominatim client configuration
type GeocodingConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	CacheSize         int
	RequestsPerSecond float64
}

// CityConfig holds the geography the pipeline resolves against
type CityConfig struct {
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64

	CenterLat float64
	CenterLng float64

	// JitterDegrees spreads fallback pins around the center so they do not
	// stack on the map.
	JitterDegrees float64

	NameNative    string
	NameLatin     string
	CountryNative string
	CountryLatin  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	ExtractionRPS     float64 // Stricter limit for the extraction endpoint
	ExtractionBurst   int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8000"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: getDurationOrDefault("GEMINI_TIMEOUT", 30*time.Second),
		},
		Geocoding: GeocodingConfig{
			BaseURL:           getEnvOrDefault("GEOCODING_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:         getEnvOrDefault("GEOCODING_USER_AGENT", "KyzylordaIncidentMap/1.0"),
			Timeout:           getDurationOrDefault("GEOCODING_TIMEOUT", 5*time.Second),
			CacheSize:         getIntOrDefault("GEOCODING_CACHE_SIZE", 1000),
			RequestsPerSecond: getFloatOrDefault("GEOCODING_RPS", 1),
		},
		City: CityConfig{
			LatMin:        getFloatOrDefault("CITY_LAT_MIN", 44.7),
			LatMax:        getFloatOrDefault("CITY_LAT_MAX", 45.0),
			LngMin:        getFloatOrDefault("CITY_LNG_MIN", 65.3),
			LngMax:        getFloatOrDefault("CITY_LNG_MAX", 65.7),
			CenterLat:     getFloatOrDefault("CITY_CENTER_LAT", 44.8488),
			CenterLng:     getFloatOrDefault("CITY_CENTER_LNG", 65.4823),
			JitterDegrees: getFloatOrDefault("CITY_FALLBACK_JITTER", 0.005),
			NameNative:    getEnvOrDefault("CITY_NAME_NATIVE", "Кызылорда"),
			NameLatin:     getEnvOrDefault("CITY_NAME_LATIN", "Kyzylorda"),
			CountryNative: getEnvOrDefault("COUNTRY_NAME_NATIVE", "Казахстан"),
			CountryLatin:  getEnvOrDefault("COUNTRY_NAME_LATIN", "Kazakhstan"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
			ExtractionRPS:     getFloatOrDefault("RATE_LIMIT_EXTRACTION_RPS", 1),
			ExtractionBurst:   getIntOrDefault("RATE_LIMIT_EXTRACTION_BURST", 5),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
			MaxAge:         getIntOrDefault("CORS_MAX_AGE", 300),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "incident-map"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration. The Gemini API key is deliberately
// not required: without it the service still serves broadcasts and the
// websocket stream, and extraction reports its own error.
func (c *Config) Validate() error {
	var errs []string

	if c.City.LatMin >= c.City.LatMax {
		errs = append(errs, "CITY_LAT_MIN must be less than CITY_LAT_MAX")
	}
	if c.City.LngMin >= c.City.LngMax {
		errs = append(errs, "CITY_LNG_MIN must be less than CITY_LNG_MAX")
	}
	if c.City.CenterLat <= c.City.LatMin || c.City.CenterLat >= c.City.LatMax ||
		c.City.CenterLng <= c.City.LngMin || c.City.CenterLng >= c.City.LngMax {
		errs = append(errs, "city center must lie strictly inside the city bounds")
	}
	if c.City.JitterDegrees < 0 {
		errs = append(errs, "CITY_FALLBACK_JITTER must not be negative")
	}

	// Security validations
	if c.App.Environment == "production" {
		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}
		if c.Gemini.APIKey == "" {
			// Warn-level condition, still boots. Readiness reports it.
			log.Println("GEMINI_API_KEY is not set; incident extraction will be unavailable")
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Gemini: [model=%s key_set=%t], Geocoding: %s, RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Gemini.Model,
		c.Gemini.APIKey != "",
		c.Geocoding.BaseURL,
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}
