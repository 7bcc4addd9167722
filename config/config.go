package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the analyzer.
type Config struct {
	// Search-ad statistics API. Credentials are assumed pre-validated; the
	// core treats them as an opaque handle.
	APIBaseURL   string
	APIKey       string
	APISecret    string
	CustomerID   string
	APITimeout   time.Duration
	StatsWorkers int
	BidDepth     int // bid-ladder positions requested per device

	// Adaptive rate limiter bounds.
	MinRequestDelay     time.Duration
	MaxRequestDelay     time.Duration
	InitialRequestDelay time.Duration

	// Retry policy for per-keyword stat fetches.
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RetryFactor    float64

	// SERP navigation.
	PCSearchURL     string // fmt template, %s = url-escaped keyword
	MobileSearchURL string
	NavTimeout      time.Duration
	SettleDelay     time.Duration
	NavRetryDelay   time.Duration
	SerpPerSecond   float64 // politeness pacing inside each device worker
	Headless        bool
	PCUserAgent     string
	MobileUserAgent string

	// Output
	OutFile  string
	LogLevel string

	// PostgreSQL result sink (optional).
	DBEnabled  bool
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		APIBaseURL:   getEnv("SEARCHAD_API_URL", "https://api.searchad.naver.com"),
		APIKey:       getEnv("SEARCHAD_API_KEY", ""),
		APISecret:    getEnv("SEARCHAD_API_SECRET", ""),
		CustomerID:   getEnv("SEARCHAD_CUSTOMER_ID", ""),
		APITimeout:   30 * time.Second,
		StatsWorkers: 3,
		BidDepth:     15,

		MinRequestDelay:     200 * time.Millisecond,
		MaxRequestDelay:     10 * time.Second,
		InitialRequestDelay: 500 * time.Millisecond,

		MaxRetries:     3,
		RetryBaseDelay: 1 * time.Second,
		RetryMaxDelay:  10 * time.Second,
		RetryFactor:    2.0,

		PCSearchURL:     "https://search.naver.com/search.naver?query=%s",
		MobileSearchURL: "https://m.search.naver.com/search.naver?query=%s",
		NavTimeout:      25 * time.Second,
		SettleDelay:     1500 * time.Millisecond,
		NavRetryDelay:   2 * time.Second,
		SerpPerSecond:   getEnvFloat("SERP_PER_SECOND", 0.5),
		Headless:        true,
		PCUserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MobileUserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
			"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",

		OutFile:  "keyword_results.json",
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBEnabled:  getEnvBool("DB_ENABLED", false),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "searchad"),
		DBPassword: getEnv("DB_PASSWORD", "searchad"),
		DBName:     getEnv("DB_NAME", "keyword_analyzer"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
