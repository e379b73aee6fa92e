// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all dex configuration.
type Config struct {
	API    API    `yaml:"api"`
	List   List   `yaml:"list"`
	Search Search `yaml:"search"`
	Cache  Cache  `yaml:"cache"`
	Log    Log    `yaml:"log"`
}

// API holds remote catalog settings.
type API struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// List holds list screen settings.
type List struct {
	PageSize      int  `yaml:"page_size"`
	PrefetchCards bool `yaml:"prefetch_cards"` // Fetch details of visible rows for type colours
}

// Search holds search settings.
type Search struct {
	Limit    int           `yaml:"limit"` // Records fetched and filtered per search
	Debounce time.Duration `yaml:"debounce"`
}

// Cache holds query cache lifetimes.
type Cache struct {
	ListTTL              time.Duration `yaml:"list_ttl"`
	DetailTTL            time.Duration `yaml:"detail_ttl"`
	SearchTTL            time.Duration `yaml:"search_ttl"`
	SweepInterval        time.Duration `yaml:"sweep_interval"`
	StaleWhileRevalidate bool          `yaml:"stale_while_revalidate"`
}

// Log holds logging settings.
type Log struct {
	File  string `yaml:"file"`  // Empty discards logs
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			BaseURL:   "https://pokeapi.co/api/v2",
			Timeout:   10 * time.Second,
			UserAgent: "dex",
		},
		List: List{
			PageSize:      20,
			PrefetchCards: true,
		},
		Search: Search{
			Limit:    100,
			Debounce: 300 * time.Millisecond,
		},
		Cache: Cache{
			ListTTL:              5 * time.Minute,
			DetailTTL:            10 * time.Minute,
			SearchTTL:            time.Minute,
			SweepInterval:        30 * time.Second,
			StaleWhileRevalidate: true,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if c.API.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.List.PageSize <= 0 || c.List.PageSize > 100 {
		return fmt.Errorf("config: list.page_size must be between 1 and 100, got %d", c.List.PageSize)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("config: search.limit must be positive, got %d", c.Search.Limit)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("config: search.debounce must be non-negative, got %v", c.Search.Debounce)
	}
	for name, d := range map[string]time.Duration{
		"cache.list_ttl":   c.Cache.ListTTL,
		"cache.detail_ttl": c.Cache.DetailTTL,
		"cache.search_ttl": c.Cache.SearchTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", name, d)
		}
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("config: cache.sweep_interval must be non-negative, got %v", c.Cache.SweepInterval)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log.level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", s)
	}
	return lvl, nil
}

// envOverrides lists the supported environment variables. Unset variables
// leave their pointer nil.
type envOverrides struct {
	BaseURL     *string        `env:"DEX_API_BASE_URL"`
	Timeout     *time.Duration `env:"DEX_API_TIMEOUT"`
	PageSize    *int           `env:"DEX_PAGE_SIZE"`
	SearchLimit *int           `env:"DEX_SEARCH_LIMIT"`
	Debounce    *time.Duration `env:"DEX_SEARCH_DEBOUNCE"`
	ListTTL     *time.Duration `env:"DEX_CACHE_LIST_TTL"`
	DetailTTL   *time.Duration `env:"DEX_CACHE_DETAIL_TTL"`
	SearchTTL   *time.Duration `env:"DEX_CACHE_SEARCH_TTL"`
	LogFile     *string        `env:"DEX_LOG_FILE"`
	LogLevel    *string        `env:"DEX_LOG_LEVEL"`
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: DEX_API_BASE_URL, DEX_API_TIMEOUT, DEX_PAGE_SIZE,
// DEX_SEARCH_LIMIT, DEX_SEARCH_DEBOUNCE, DEX_CACHE_LIST_TTL,
// DEX_CACHE_DETAIL_TTL, DEX_CACHE_SEARCH_TTL, DEX_LOG_FILE, DEX_LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	setIf(&c.API.BaseURL, o.BaseURL)
	setIf(&c.API.Timeout, o.Timeout)
	setIf(&c.List.PageSize, o.PageSize)
	setIf(&c.Search.Limit, o.SearchLimit)
	setIf(&c.Search.Debounce, o.Debounce)
	setIf(&c.Cache.ListTTL, o.ListTTL)
	setIf(&c.Cache.DetailTTL, o.DetailTTL)
	setIf(&c.Cache.SearchTTL, o.SearchTTL)
	setIf(&c.Log.File, o.LogFile)
	setIf(&c.Log.Level, o.LogLevel)
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API    *rawAPI    `yaml:"api"`
	List   *rawList   `yaml:"list"`
	Search *rawSearch `yaml:"search"`
	Cache  *rawCache  `yaml:"cache"`
	Log    *rawLog    `yaml:"log"`
}

type rawAPI struct {
	BaseURL   *string        `yaml:"base_url"`
	Timeout   *time.Duration `yaml:"timeout"`
	UserAgent *string        `yaml:"user_agent"`
}

type rawList struct {
	PageSize      *int  `yaml:"page_size"`
	PrefetchCards *bool `yaml:"prefetch_cards"`
}

type rawSearch struct {
	Limit    *int           `yaml:"limit"`
	Debounce *time.Duration `yaml:"debounce"`
}

type rawCache struct {
	ListTTL              *time.Duration `yaml:"list_ttl"`
	DetailTTL            *time.Duration `yaml:"detail_ttl"`
	SearchTTL            *time.Duration `yaml:"search_ttl"`
	SweepInterval        *time.Duration `yaml:"sweep_interval"`
	StaleWhileRevalidate *bool          `yaml:"stale_while_revalidate"`
}

type rawLog struct {
	File  *string `yaml:"file"`
	Level *string `yaml:"level"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if a := layer.API; a != nil {
		setIf(&c.API.BaseURL, a.BaseURL)
		setIf(&c.API.Timeout, a.Timeout)
		setIf(&c.API.UserAgent, a.UserAgent)
	}
	if l := layer.List; l != nil {
		setIf(&c.List.PageSize, l.PageSize)
		setIf(&c.List.PrefetchCards, l.PrefetchCards)
	}
	if s := layer.Search; s != nil {
		setIf(&c.Search.Limit, s.Limit)
		setIf(&c.Search.Debounce, s.Debounce)
	}
	if ca := layer.Cache; ca != nil {
		setIf(&c.Cache.ListTTL, ca.ListTTL)
		setIf(&c.Cache.DetailTTL, ca.DetailTTL)
		setIf(&c.Cache.SearchTTL, ca.SearchTTL)
		setIf(&c.Cache.SweepInterval, ca.SweepInterval)
		setIf(&c.Cache.StaleWhileRevalidate, ca.StaleWhileRevalidate)
	}
	if lg := layer.Log; lg != nil {
		setIf(&c.Log.File, lg.File)
		setIf(&c.Log.Level, lg.Level)
	}
}
