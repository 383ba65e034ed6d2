package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default public locations of the 2025 and 2023 results and of the CABA circuit map.
const (
	DefaultCurrentURL  = "https://raw.githubusercontent.com/Facunfer/paginaresultados-2025/refs/heads/main/CONSOLIDACI%C3%93N%20DE%20RSULTADOS%202025%20-%20RESULTADOS%202025%20(1).csv"
	DefaultPriorURL    = "https://raw.githubusercontent.com/Facunfer/paginaresultados-2025/refs/heads/main/CONSOLIDACI%C3%93N%20RESULTADOS%20ELECCIONES%202023%20-%20Hoja%201%20(2).csv"
	DefaultGeometryURL = "https://raw.githubusercontent.com/tartagalensis/circuitos_electorales_AR/main/geojson/CABA.geojson"

	DefaultPort            = "5050"
	DefaultFetchTimeout    = 60 * time.Second
	DefaultRefreshInterval = 30 * time.Second
)

// Common errors
var (
	ErrMissingSourceURL = errors.New("source URL is required")
	ErrInvalidPort      = errors.New("PORT must be a number between 1 and 65535")
	ErrInvalidDuration  = errors.New("invalid duration")
)

// Sources holds the three remote inputs.
type Sources struct {
	CurrentURL  string
	PriorURL    string
	GeometryURL string
}

// Key identifies a set of sources for memoization.
func (s Sources) Key() string {
	return s.CurrentURL + "|" + s.PriorURL + "|" + s.GeometryURL
}

// Config holds configuration for the dashboard and CLI.
type Config struct {
	Port            string
	Sources         Sources
	FetchTimeout    time.Duration // 0 disables the per-request timeout
	ElectionFile    string
	Election        Election
	LogLevel        string
	LogJSON         bool
	CORSOrigins     []string
	RefreshInterval time.Duration
}

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - PORT: listen port (default: 5050)
//   - RESULTS_CURRENT_URL, RESULTS_PRIOR_URL, CIRCUITS_GEOJSON_URL: source locations
//   - FETCH_TIMEOUT: per-request timeout, Go duration syntax (default: 60s, 0 for none)
//   - ELECTION_CONFIG: optional YAML file overriding the party/column mapping
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_JSON: "true" for JSON logs (default: console)
//   - CORS_ORIGINS: comma-separated allow-list of browser origins
//   - REFRESH_INTERVAL: minimum spacing between manual cache refreshes (default: 30s)
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", DefaultPort),
		Sources: Sources{
			CurrentURL:  envOr("RESULTS_CURRENT_URL", DefaultCurrentURL),
			PriorURL:    envOr("RESULTS_PRIOR_URL", DefaultPriorURL),
			GeometryURL: envOr("CIRCUITS_GEOJSON_URL", DefaultGeometryURL),
		},
		ElectionFile: strings.TrimSpace(os.Getenv("ELECTION_CONFIG")),
		LogLevel:     strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogJSON:      strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_JSON")), "true"),
		CORSOrigins:  splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.FetchTimeout, err = durationEnv("FETCH_TIMEOUT", DefaultFetchTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = durationEnv("REFRESH_INTERVAL", DefaultRefreshInterval); err != nil {
		return Config{}, err
	}

	if cfg.ElectionFile != "" {
		if cfg.Election, err = LoadElection(cfg.ElectionFile); err != nil {
			return Config{}, err
		}
	} else {
		cfg.Election = DefaultElection().Normalized()
	}

	return cfg, nil
}

// Validate checks that the configuration can start a session.
func (c Config) Validate() error {
	if c.Sources.CurrentURL == "" || c.Sources.PriorURL == "" || c.Sources.GeometryURL == "" {
		return ErrMissingSourceURL
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: got %q", ErrInvalidPort, c.Port)
	}
	return c.Election.Validate()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidDuration, key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
