package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	APIBase              string
	AccessToken          string
	PageSize             int
	MaxSpanDays          int
	Workers              int // concurrent targets; 1 = strictly sequential
	OutputDir            string
	SQLitePath           string // empty = SQLite sink disabled
	DatabaseURL          string // empty = Postgres sink disabled
	ReadableDates        bool   // add create_date derived from create_time
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (paging, research, sink).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.MaxSpanDays <= 0 {
		c.MaxSpanDays = 30
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg = c
	Cfg = &cfg
}
