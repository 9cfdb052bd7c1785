// Package config provides configuration management for conflictmap.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

const (
	// DefaultAPIPort is the default HTTP port for the query API.
	DefaultAPIPort = 8090

	// DefaultNitterBaseURL is the local Nitter instance serving source RSS feeds.
	DefaultNitterBaseURL = "http://localhost:8080"

	// DefaultOllamaBaseURL is the local Ollama instance used for event extraction.
	DefaultOllamaBaseURL = "http://localhost:11434"

	// DefaultGeocodeModel is the extraction model invoked through Ollama.
	DefaultGeocodeModel = "richardyoung/qwen3-14b-abliterated:q5_k_m"

	// DefaultEmbeddingModel is the embedding model requested from the provider.
	DefaultEmbeddingModel = "paraphrase-multilingual-minilm-l12-v2"

	// DefaultEmbeddingDimensions matches the default embedding model output.
	DefaultEmbeddingDimensions = 384
)

// DefaultSources are the OSINT accounts scraped each ingestion cycle.
var DefaultSources = []string{
	"@GeoConfirmed", "@sentdefender", "@OSINTWarfare",
	"@Osinttechnical", "@Conflict_Radar", "@WarMonitor3",
}

// Config holds the application configuration.
type Config struct {
	// Database settings
	DatabaseDSN string `json:"database_dsn"`
	MaxConns    int    `json:"max_conns"`

	// Redis seen-id cache for ingestion (empty = disabled, store-backed only)
	RedisAddr string `json:"redis_addr"`

	// API settings
	APIPort int `json:"api_port"`

	// Feed settings
	NitterBaseURL string   `json:"nitter_base_url"`
	Sources       []string `json:"sources"`

	// Geocode (LLM extraction) settings
	OllamaBaseURL string `json:"ollama_base_url"`
	GeocodeModel  string `json:"geocode_model"`

	// Embedding provider settings
	EmbeddingBaseURL    string `json:"embedding_base_url"`
	EmbeddingAPIKey     string `json:"embedding_api_key"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`

	// Dedup engine settings
	DedupHighSimilarity float64 `json:"dedup_high_similarity"`
	DedupLowSimilarity  float64 `json:"dedup_low_similarity"`
	DedupGeoRadiusKm    float64 `json:"dedup_geo_radius_km"`
	DedupTimeWindowH    int     `json:"dedup_time_window_hours"`
	DedupFetchWindowH   int     `json:"dedup_fetch_window_hours"`
	DedupIntervalH      int     `json:"dedup_interval_hours"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// DataDir returns the data directory path (~/.conflictmap).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".conflictmap")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		DatabaseDSN:         "postgres://tw_user@localhost:5432/twitter_conflicts?sslmode=disable",
		MaxConns:            10,
		APIPort:             DefaultAPIPort,
		NitterBaseURL:       DefaultNitterBaseURL,
		Sources:             DefaultSources,
		OllamaBaseURL:       DefaultOllamaBaseURL,
		GeocodeModel:        DefaultGeocodeModel,
		EmbeddingModel:      DefaultEmbeddingModel,
		EmbeddingDimensions: DefaultEmbeddingDimensions,
		DedupHighSimilarity: 0.85,
		DedupLowSimilarity:  0.75,
		DedupGeoRadiusKm:    50,
		DedupTimeWindowH:    24,
		DedupFetchWindowH:   24,
		DedupIntervalH:      24,
	}
}

// Load loads configuration from the settings file, merging with defaults.
// Environment variables (CONFLICTMAP_*) override file values.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, jsonErr
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONFLICTMAP_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("CONFLICTMAP_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CONFLICTMAP_API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.APIPort = p
		}
	}
	if v := os.Getenv("CONFLICTMAP_NITTER_BASE_URL"); v != "" {
		cfg.NitterBaseURL = v
	}
	if v := os.Getenv("CONFLICTMAP_SOURCES"); v != "" {
		cfg.Sources = splitTrim(v)
	}
	if v := os.Getenv("CONFLICTMAP_OLLAMA_BASE_URL"); v != "" {
		cfg.OllamaBaseURL = v
	}
	if v := os.Getenv("CONFLICTMAP_GEOCODE_MODEL"); v != "" {
		cfg.GeocodeModel = v
	}
	if v := os.Getenv("CONFLICTMAP_EMBEDDING_BASE_URL"); v != "" {
		cfg.EmbeddingBaseURL = v
	}
	if v := os.Getenv("CONFLICTMAP_EMBEDDING_API_KEY"); v != "" {
		cfg.EmbeddingAPIKey = v
	}
	if v := os.Getenv("CONFLICTMAP_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("CONFLICTMAP_EMBEDDING_DIMENSIONS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			cfg.EmbeddingDimensions = d
		}
	}
	if v := os.Getenv("CONFLICTMAP_DEDUP_HIGH_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.DedupHighSimilarity = f
		}
	}
	if v := os.Getenv("CONFLICTMAP_DEDUP_LOW_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.DedupLowSimilarity = f
		}
	}
	if v := os.Getenv("CONFLICTMAP_DEDUP_GEO_RADIUS_KM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.DedupGeoRadiusKm = f
		}
	}
	if v := os.Getenv("CONFLICTMAP_DEDUP_TIME_WINDOW_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.DedupTimeWindowH = h
		}
	}
	if v := os.Getenv("CONFLICTMAP_DEDUP_FETCH_WINDOW_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.DedupFetchWindowH = h
		}
	}
	if v := os.Getenv("CONFLICTMAP_DEDUP_INTERVAL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.DedupIntervalH = h
		}
	}
}

// splitTrim splits a comma-separated string and trims whitespace.
func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	configOnce.Do(func() {
		var err error
		globalConfig, err = Load()
		if err != nil {
			globalConfig = Default()
			applyEnvOverrides(globalConfig)
		}
	})
	return globalConfig
}
