package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "EPICLIST_API_KEY", "WORKER_COUNT", "MAX_UPLOAD_BYTES", "JOB_TTL", "MD_TABLES", "MD_HTML_TEXT"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %s", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.JobTTL)
	}
	opts := cfg.ParseOptions()
	if !opts.Tables || !opts.Strikethrough || !opts.FrontMatter || opts.HTMLText || opts.Linkify {
		t.Errorf("unexpected default parse options: %+v", opts)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing API key to fail validation")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EPICLIST_API_KEY", "secret")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("MAX_CONCURRENT_EXTRACT", "3")
	t.Setenv("STATS_WINDOW", "10m")
	t.Setenv("MD_TABLES", "false")
	t.Setenv("MD_HTML_TEXT", "true")
	t.Setenv("MD_INLINE_ANNOTATIONS", "not-a-bool")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.MaxConcurrentExtract != 3 {
		t.Errorf("expected 3, got %d", cfg.MaxConcurrentExtract)
	}
	if cfg.StatsWindow != 10*time.Minute {
		t.Errorf("expected 10m, got %s", cfg.StatsWindow)
	}
	opts := cfg.ParseOptions()
	if opts.Tables || !opts.HTMLText || opts.InlineAnnotations {
		t.Errorf("unexpected parse options: %+v", opts)
	}
}
