package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.AppName != "preview-harvester" {
		t.Fatalf("unexpected app name %q", cfg.AppName)
	}
	if cfg.CrawlInterval != 15*time.Minute {
		t.Fatalf("unexpected crawl interval %v", cfg.CrawlInterval)
	}
	if cfg.HTTPTimeout != 15*time.Second || cfg.HostDelay != 5*time.Second {
		t.Fatalf("unexpected http settings timeout=%v delay=%v", cfg.HTTPTimeout, cfg.HostDelay)
	}
	if cfg.ParseWorkers != 4 {
		t.Fatalf("unexpected parse workers %d", cfg.ParseWorkers)
	}
	if cfg.StorageTTL != 5*24*time.Hour || cfg.StorageCleanupInterval != 12*time.Hour {
		t.Fatalf("unexpected storage retention ttl=%v cleanup=%v", cfg.StorageTTL, cfg.StorageCleanupInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "60")
	t.Setenv("PARSE_WORKERS", "8")
	t.Setenv("STORAGE_TYPE", "memory")

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.CrawlInterval != time.Minute {
		t.Fatalf("unexpected crawl interval %v", cfg.CrawlInterval)
	}
	if cfg.ParseWorkers != 8 {
		t.Fatalf("unexpected parse workers %d", cfg.ParseWorkers)
	}
	if cfg.StorageType != "memory" {
		t.Fatalf("unexpected storage type %q", cfg.StorageType)
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("HOST_DELAY_MS=250\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("HOST_DELAY_MS") })

	cfg, err := LoadFrom(envFile)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HostDelay != 250*time.Millisecond {
		t.Fatalf("unexpected host delay %v", cfg.HostDelay)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CRAWL_INTERVAL", "0")
	t.Setenv("PARSE_WORKERS", "-1")

	_, err := LoadFrom("")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"crawl_interval", "parse_workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}
