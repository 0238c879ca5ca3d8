package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Pricing    PricingConfig
	Cache      CacheConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// ExtractionConfig holds PDF/OCR extraction configuration
type ExtractionConfig struct {
	CircularDir    string
	AutoLoad       bool
	WatchDir       bool
	MaxPages       int
	DPI            int
	OCRPageTimeout time.Duration
	FetchTimeout   time.Duration
	TessdataDir    string
	Mode           string // "fallback" | "ensemble"
}

// PricingConfig holds offer-aggregation configuration
type PricingConfig struct {
	CuratedDBPath  string
	FlippAPIKey    string
	BasketAPIKey   string
	WalmartEnabled bool
	RadiusMiles    float64
}

// CacheConfig holds the optional redis offer cache configuration
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OfferTTL      time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Extraction: ExtractionConfig{
			CircularDir:    getEnv("CIRCULAR_DIR", "/data/circulars"),
			AutoLoad:       getEnvAsBool("AUTO_LOAD_CIRCULARS", true),
			WatchDir:       getEnvAsBool("WATCH_CIRCULARS", false),
			MaxPages:       getEnvAsInt("EXTRACT_MAX_PAGES", 20),
			DPI:            getEnvAsInt("EXTRACT_DPI", 600),
			OCRPageTimeout: getEnvAsDuration("OCR_PAGE_TIMEOUT", 120*time.Second),
			FetchTimeout:   getEnvAsDuration("PDF_FETCH_TIMEOUT", 30*time.Second),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			Mode:           getEnv("EXTRACT_MODE", "fallback"),
		},
		Pricing: PricingConfig{
			CuratedDBPath:  getEnv("CURATED_DB_PATH", ""),
			FlippAPIKey:    getEnv("FLIPP_API_KEY", ""),
			BasketAPIKey:   getEnv("BASKET_API_KEY", ""),
			WalmartEnabled: getEnvAsBool("WEEKLY_WALMART_ENABLED", false),
			RadiusMiles:    getEnvAsFloat64("PRICING_RADIUS_MILES", 5.0),
		},
		Cache: CacheConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			OfferTTL:      getEnvAsDuration("OFFER_CACHE_TTL", 15*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "1", "true", "yes", "on", "TRUE", "True":
			return true
		case "0", "false", "no", "off", "FALSE", "False":
			return false
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Extraction.Mode != "fallback" && c.Extraction.Mode != "ensemble" {
		return NewAppError("CONFIG_ERROR", "EXTRACT_MODE must be fallback or ensemble", ErrInvalidInput)
	}
	return nil
}
