// Package config loads runtime configuration from environment variables.
// A .env file in the working directory is loaded first if present, which
// keeps local development close to the deployed setup.
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

// Config holds everything the server needs from the environment.
type Config struct {
	Port         int
	DBPath       string
	JWTSecret    string
	TokenTTL     time.Duration
	ImageHostURL string        // upload endpoint of the image-hosting collaborator
	ImageHostKey string        // API key sent with each upload
	CORSOrigins  []string      // allowed cross-origin sources, "*" allows all

	// Per-IP rate limit. RateLimitRequests <= 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from the environment and performs minimal
// validation. JWT_SECRET is the only hard requirement — the server must
// never start with token signing disabled.
func Load() (Config, error) {
	// Missing .env is fine; env vars may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:         8080,
		DBPath:       fallback(os.Getenv("DB_PATH"), "data/storefront.db"),
		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:     72 * time.Hour,
		ImageHostURL: strings.TrimSpace(os.Getenv("IMAGE_HOST_URL")),
		ImageHostKey: strings.TrimSpace(os.Getenv("IMAGE_HOST_KEY")),
		CORSOrigins:  parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", portStr)
		}
		cfg.Port = port
	}

	if hoursStr := os.Getenv("TOKEN_TTL_HOURS"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("config: invalid TOKEN_TTL_HOURS %q", hoursStr)
		}
		cfg.TokenTTL = time.Duration(hours) * time.Hour
	}

	// 0 turns limiting off; negative values are a config mistake.
	if reqStr := os.Getenv("RATE_LIMIT_REQUESTS"); reqStr != "" {
		requests, err := strconv.Atoi(reqStr)
		if err != nil || requests < 0 {
			return Config{}, fmt.Errorf("config: invalid RATE_LIMIT_REQUESTS %q", reqStr)
		}
		cfg.RateLimitRequests = requests
	}

	if minStr := os.Getenv("RATE_LIMIT_WINDOW_MINUTES"); minStr != "" {
		minutes, err := strconv.Atoi(minStr)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("config: invalid RATE_LIMIT_WINDOW_MINUTES %q", minStr)
		}
		cfg.RateLimitWindow = time.Duration(minutes) * time.Minute
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required")
	}

	return cfg, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
