// Package config loads scraper configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalid marks a configuration value that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for a scraper run.
type Config struct {
	// Run shape
	ArtifactsDir     string
	ScreenshotDir    string
	City             string
	CitiesFile       string
	TargetURL        string
	MaxPages         int
	MaxDetails       int
	Headless         bool
	ProfileDir       string
	SkipWarmUp       bool
	ChromePath       string
	CloudflareBypass bool
	RequestTimeout   time.Duration

	// TripAdvisor content API
	TripAdvisorAPIKey   string
	TripAdvisorAPIURL   string
	TripAdvisorLatLong  string
	TripAdvisorCategory string
	TripAdvisorLanguage string

	// LLM providers
	HubMixAPIKey      string
	HubMixBaseURL     string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	LLMModel          string
	LLMStrictProvider bool
	LLMRequestsPerMin int
	LLMTemperature    float64

	// S3-compatible artifact mirror
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string

	Cities map[string]City
}

// StorageEnabled reports whether the artifact mirror has enough settings to run.
func (c *Config) StorageEnabled() bool {
	return c.StorageBucket != "" && c.StorageEndpoint != ""
}

// Load builds a Config from environment variables with defaults matching a
// Chongqing run. The cities file, if configured, is merged over the built-in
// catalog.
func Load() (*Config, error) {
	cfg := &Config{
		ArtifactsDir:     getEnv("ARTIFACTS_DIR", "artifacts"),
		ScreenshotDir:    getEnv("SCREENSHOT_DIR", "."),
		City:             getEnv("SCRAPER_CITY", "Chongqing"),
		CitiesFile:       getEnv("CITIES_FILE", ""),
		TargetURL:        getEnv("TARGET_URL", "https://www.tripadvisor.com/Attractions-g294213-Activities-oa0-Chongqing.html"),
		MaxPages:         getEnvInt("MAX_PAGES", 1),
		MaxDetails:       getEnvInt("MAX_DETAILS", 5),
		Headless:         getEnvBool("HEADLESS", false),
		ProfileDir:       getEnv("BROWSER_PROFILE_DIR", "./tripadvisor_user_data"),
		SkipWarmUp:       getEnvBool("BROWSER_SKIP_WARMUP", false),
		ChromePath:       getEnv("CHROME_PATH", ""),
		CloudflareBypass: getEnvBool("CLOUDFLARE_BYPASS", false),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		TripAdvisorAPIKey:   getEnv("TRIPADVISOR_API_KEY", ""),
		TripAdvisorAPIURL:   getEnv("TRIPADVISOR_API_URL", "https://api.content.tripadvisor.com/api/v1"),
		TripAdvisorLatLong:  getEnv("TRIPADVISOR_LATLONG", "29.5630,106.5516"),
		TripAdvisorCategory: getEnv("TRIPADVISOR_CATEGORY", "attractions"),
		TripAdvisorLanguage: getEnv("TRIPADVISOR_LANGUAGE", "en"),

		HubMixAPIKey:      getEnv("AI_HUBMIX_KEY", ""),
		HubMixBaseURL:     getEnv("AI_HUBMIX_API_URL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:          getEnv("LLM_MODEL", "gemini-2.5-pro"),
		LLMStrictProvider: getEnvBool("LLM_STRICT_PROVIDER", false),
		LLMRequestsPerMin: getEnvInt("LLM_REQUESTS_PER_MINUTE", 20),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", 0.4),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("STORAGE_REGION", "auto"),

		Cities: DefaultCities(),
	}

	if cfg.CitiesFile != "" {
		extra, err := LoadCities(cfg.CitiesFile)
		if err != nil {
			return nil, err
		}
		for k, v := range extra {
			cfg.Cities[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that are always needed. Credentials are checked by
// the component that uses them.
func (c *Config) Validate() error {
	switch {
	case c.MaxPages < 1:
		return fmt.Errorf("%w: MAX_PAGES must be >= 1, got %d", ErrInvalid, c.MaxPages)
	case c.MaxDetails < 0:
		return fmt.Errorf("%w: MAX_DETAILS must be >= 0, got %d", ErrInvalid, c.MaxDetails)
	case c.ArtifactsDir == "":
		return fmt.Errorf("%w: ARTIFACTS_DIR is empty", ErrInvalid)
	case c.LLMRequestsPerMin < 0:
		return fmt.Errorf("%w: LLM_REQUESTS_PER_MINUTE must be >= 0", ErrInvalid)
	}
	return nil
}

// LoadDotEnv loads the given .env files (default ".env") without overriding
// variables already present. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
