package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/epiclist/internal/mdparse"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentExtract int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Latency stats
	StatsWindow time.Duration

	// Markdown parsing
	Tables            bool
	Strikethrough     bool
	Linkify           bool
	InlineAnnotations bool
	HTMLText          bool
	FrontMatter       bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("EPICLIST_API_KEY"),

		WorkerCount:          envInt("WORKER_COUNT", 4),
		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 8),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		Tables:            envBool("MD_TABLES", true),
		Strikethrough:     envBool("MD_STRIKETHROUGH", true),
		Linkify:           envBool("MD_LINKIFY", false),
		InlineAnnotations: envBool("MD_INLINE_ANNOTATIONS", false),
		HTMLText:          envBool("MD_HTML_TEXT", false),
		FrontMatter:       envBool("MD_FRONT_MATTER", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("EPICLIST_API_KEY is required")
	}
	return nil
}

// ParseOptions returns the markdown parser options selected by the MD_*
// variables.
func (c Config) ParseOptions() mdparse.Options {
	return mdparse.Options{
		Tables:            c.Tables,
		Strikethrough:     c.Strikethrough,
		Linkify:           c.Linkify,
		InlineAnnotations: c.InlineAnnotations,
		HTMLText:          c.HTMLText,
		FrontMatter:       c.FrontMatter,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
