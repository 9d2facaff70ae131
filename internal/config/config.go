// Package config is the configuration file of the cqscraper binary.
package config

import (
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/store"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"cqscraper/pkg/configutil"
	"fmt"
	"slices"
	"time"
)

const (
	BackendS3  = "s3"
	BackendSQL = "sql"
)

type StorageConfig struct {
	// Backend is s3 or sql.
	Backend string           `json:"backend"`
	S3      store.S3Options  `json:"s3"`
	SQL     store.SQLOptions `json:"sql"`
}

type LogConfig struct {
	Verbose    bool   `json:"verbose"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

type CacheConfig struct {
	// Dir holds the page cache, empty keeps it in memory for the run.
	Dir           string `json:"dir"`
	LifetimeHours int    `json:"lifetime_hours"`
}

func (c CacheConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeHours) * time.Hour
}

type CrawlConfig struct {
	Attempts      int    `json:"attempts"`
	OnPageFailure string `json:"on_page_failure"`
	MaxRefreshes  int    `json:"max_refreshes"`
}

type SiteConfig struct {
	// Prefix is the storage folder of the site's records.
	Prefix        string  `json:"prefix"`
	Start         *int    `json:"start"`
	End           *int    `json:"end"`
	Step          int     `json:"step"`
	Username      string  `json:"username"`
	Password      string  `json:"password"`
	RatePerSecond float64 `json:"rate_per_second"`
	// Cron, when set, is the schedule `crawl --cron` uses when none is given on the command line.
	Cron string `json:"cron"`
}

// Cursor returns the configured page range.
func (s SiteConfig) Cursor() crawl.Cursor {
	cursor := crawl.Cursor{Step: s.Step}
	if s.Start != nil {
		cursor.Start = *s.Start
	}
	if s.End != nil {
		cursor.End = *s.End
	}
	return cursor
}

type Config struct {
	Timezone string                `json:"timezone"`
	Storage  StorageConfig         `json:"storage"`
	Log      LogConfig             `json:"log"`
	Otlp     telemetry.OtlpConfig  `json:"otlp"`
	Browser  browser.Options       `json:"browser"`
	Cache    CacheConfig           `json:"cache"`
	Crawl    CrawlConfig           `json:"crawl"`
	Sites    map[string]SiteConfig `json:"sites"`
}

// Sites lists every supported site in the order they are shown.
var Sites = []string{"leetcode", "geeksforgeeks", "codechef", "interviewbit", "techiedelight"}

// defaultCursors are the page ranges each site's catalog covered when it was last sized.
var defaultCursors = map[string]crawl.Cursor{
	"leetcode":      {Start: 0, End: 3060, Step: 50},
	"geeksforgeeks": {Start: 1, End: 50, Step: 1},
	"codechef":      {Start: 0, End: 150, Step: 1},
	"interviewbit":  {Start: 0, End: 745, Step: 1},
	"techiedelight": {Start: 0, End: 5000, Step: 50},
}

// Site returns the configuration of a site with defaults filled in.
func (c Config) Site(name string) (SiteConfig, error) {
	if !slices.Contains(Sites, name) {
		return SiteConfig{}, fmt.Errorf("unknown site %q (expected one of %v)", name, Sites)
	}
	site := c.Sites[name]
	if site.Prefix == "" {
		site.Prefix = "CQ-Scrapping/" + name
	}
	cursor := defaultCursors[name]
	if site.Start == nil {
		site.Start = &cursor.Start
	}
	if site.End == nil {
		site.End = &cursor.End
	}
	if site.Step <= 0 {
		site.Step = cursor.Step
	}
	return site, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3 needs an endpoint and a bucket")
		}
	case BackendSQL:
		if c.Storage.SQL.File == "" && c.Storage.SQL.Url == "" {
			return fmt.Errorf("storage.sql needs a file or a url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (expected s3 or sql)", c.Storage.Backend)
	}
	_, err := crawl.ParsePageFailurePolicy(c.Crawl.OnPageFailure)
	if err != nil {
		return err
	}
	for name := range c.Sites {
		if !slices.Contains(Sites, name) {
			return fmt.Errorf("sites: unknown site %q", name)
		}
	}
	return nil
}

// Load reads the configuration file (and its .local override) and validates it.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.Cache.LifetimeHours <= 0 {
		cfg.Cache.LifetimeHours = 24
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
