// Package config loads the YAML configuration, layering env var overrides
// on top of defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Platforms  PlatformsConfig  `yaml:"platforms"`
	Scrapers   ScrapersConfig   `yaml:"scrapers"`
	Feeds      FeedsConfig      `yaml:"feeds"`
	Sync       SyncConfig       `yaml:"sync"`
	Publishing PublishingConfig `yaml:"publishing"`
	Verifier   VerifierConfig   `yaml:"verifier"`
	Server     ServerConfig     `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the background sync and keyword-job intervals.
type ScheduleConfig struct {
	SyncInterval    string `yaml:"sync_interval"`
	KeywordInterval string `yaml:"keyword_interval"`
}

// ParseSyncInterval returns the sync interval as time.Duration.
func (s ScheduleConfig) ParseSyncInterval() time.Duration {
	d, err := time.ParseDuration(s.SyncInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseKeywordInterval returns the keyword-job interval as time.Duration.
func (s ScheduleConfig) ParseKeywordInterval() time.Duration {
	d, err := time.ParseDuration(s.KeywordInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// PlatformsConfig holds the first-party API credentials.
type PlatformsConfig struct {
	InstagramAccountID   string `yaml:"instagram_account_id"`
	FacebookPageID       string `yaml:"facebook_page_id"`
	PinterestBoardID     string `yaml:"pinterest_board_id"`
	MetaAccessToken      string `yaml:"meta_access_token"`
	PinterestAccessToken string `yaml:"pinterest_access_token"`
}

// ScrapersConfig holds the third-party scraping vendor credentials and their
// monthly call budgets.
type ScrapersConfig struct {
	DecodoAPIKey     string         `yaml:"decodo_api_key"`
	ApifyAPIToken    string         `yaml:"apify_api_token"`
	ScrapeDoAPIToken string         `yaml:"scrape_do_api_token"`
	MonthlyLimits    map[string]int `yaml:"monthly_limits"`
}

// LimitFor returns the configured monthly budget for a vendor, defaulting
// to 5000 calls.
func (s ScrapersConfig) LimitFor(provider string) int {
	if limit, ok := s.MonthlyLimits[provider]; ok && limit > 0 {
		return limit
	}
	return 5000
}

// FeedsConfig configures the fallback feed channel.
type FeedsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URLs    string `yaml:"urls"` // newline-separated
}

// SyncConfig configures acquisition behavior.
type SyncConfig struct {
	CacheTTL         string `yaml:"cache_ttl"`
	SyncLimit        int    `yaml:"sync_limit"`
	MinEngagement    int    `yaml:"min_engagement"`
	HashtagBlacklist string `yaml:"hashtag_blacklist"` // comma-separated
}

// ParseCacheTTL returns the platform cache TTL as time.Duration.
func (s SyncConfig) ParseCacheTTL() time.Duration {
	d, err := time.ParseDuration(s.CacheTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// PublishingConfig configures how fetched records become entries.
type PublishingConfig struct {
	Mode         string `yaml:"mode"`          // draft | publish | schedule
	PostType     string `yaml:"post_type"`
	ScheduleTime string `yaml:"schedule_time"` // HH:MM
	Frequency    string `yaml:"frequency"`     // daily | weekly
}

// VerifierConfig configures the optional LLM content verifier.
type VerifierConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./socagg.db"},
		Schedule: ScheduleConfig{
			SyncInterval:    "1h",
			KeywordInterval: "30m",
		},
		Scrapers: ScrapersConfig{
			MonthlyLimits: map[string]int{
				"decodo":    5000,
				"apify":     5000,
				"scrape_do": 5000,
			},
		},
		Feeds: FeedsConfig{Enabled: true},
		Sync: SyncConfig{
			CacheTTL:      "1h",
			SyncLimit:     25,
			MinEngagement: 0,
		},
		Publishing: PublishingConfig{
			Mode:         "draft",
			PostType:     "social_posts",
			ScheduleTime: "09:00",
			Frequency:    "daily",
		},
		Verifier: VerifierConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOCAGG_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("META_ACCESS_TOKEN"); v != "" {
		cfg.Platforms.MetaAccessToken = v
	}
	if v := os.Getenv("PINTEREST_ACCESS_TOKEN"); v != "" {
		cfg.Platforms.PinterestAccessToken = v
	}
	if v := os.Getenv("DECODO_API_KEY"); v != "" {
		cfg.Scrapers.DecodoAPIKey = v
	}
	if v := os.Getenv("APIFY_API_TOKEN"); v != "" {
		cfg.Scrapers.ApifyAPIToken = v
	}
	if v := os.Getenv("SCRAPE_DO_API_TOKEN"); v != "" {
		cfg.Scrapers.ScrapeDoAPIToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Verifier.APIKey = v
		cfg.Verifier.Enabled = true
		cfg.Verifier.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Verifier.APIKey = v
		cfg.Verifier.Enabled = true
		cfg.Verifier.Provider = "anthropic"
	}
}
