package startup

import (
	"path/filepath"
	"testing"
	"time"
)

func loadTestConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PHOTOFLOW_DATA_DIR", dir)

	cfg := loadTestConfig(t)

	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.PacingWindow != 5 {
		t.Errorf("PacingWindow = %d, want 5", cfg.PacingWindow)
	}
	if cfg.PageDelay != time.Second {
		t.Errorf("PageDelay = %s, want 1s", cfg.PageDelay)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false by default")
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true by default")
	}
	if cfg.CacheDir != filepath.Join(cfg.DataDir, "cache") {
		t.Errorf("CacheDir = %s", cfg.CacheDir)
	}
	if cfg.AlbumDBPath != filepath.Join(cfg.DataDir, "albums.db") {
		t.Errorf("AlbumDBPath = %s", cfg.AlbumDBPath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dataDir := t.TempDir()
	cacheDir := t.TempDir()
	t.Setenv("PHOTOFLOW_DATA_DIR", dataDir)
	t.Setenv("PHOTOFLOW_CACHE_DIR", cacheDir)
	t.Setenv("PHOTOFLOW_CACHE_MAX_MB", "512")
	t.Setenv("PHOTOFLOW_CONCURRENCY", "20")
	t.Setenv("PHOTOFLOW_PACING_WINDOW", "8")
	t.Setenv("PHOTOFLOW_PAGE_DELAY", "250ms")
	t.Setenv("PHOTOFLOW_METRICS_ENABLED", "true")
	t.Setenv("PHOTOFLOW_METRICS_PORT", "9999")

	cfg := loadTestConfig(t)

	if cfg.CacheDir != cacheDir {
		t.Errorf("CacheDir = %s, want %s", cfg.CacheDir, cacheDir)
	}
	if cfg.CacheMaxMB != 512 {
		t.Errorf("CacheMaxMB = %d", cfg.CacheMaxMB)
	}
	if cfg.CacheMaxBytes() != 512*1024*1024 {
		t.Errorf("CacheMaxBytes() = %d", cfg.CacheMaxBytes())
	}
	if cfg.Concurrency != 20 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.PacingWindow != 8 {
		t.Errorf("PacingWindow = %d", cfg.PacingWindow)
	}
	if cfg.PageDelay != 250*time.Millisecond {
		t.Errorf("PageDelay = %s", cfg.PageDelay)
	}
	if !cfg.MetricsEnabled || cfg.MetricsPort != "9999" {
		t.Errorf("metrics config = %v/%s", cfg.MetricsEnabled, cfg.MetricsPort)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PHOTOFLOW_DATA_DIR", t.TempDir())
	t.Setenv("PHOTOFLOW_CONCURRENCY", "not-a-number")
	t.Setenv("PHOTOFLOW_PAGE_DELAY", "soon")
	t.Setenv("PHOTOFLOW_METRICS_ENABLED", "maybe")

	cfg := loadTestConfig(t)

	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want default 10", cfg.Concurrency)
	}
	if cfg.PageDelay != time.Second {
		t.Errorf("PageDelay = %s, want default 1s", cfg.PageDelay)
	}
	if cfg.MetricsEnabled {
		t.Error("invalid bool did not fall back to default")
	}
}

func TestLoadConfigCacheDisabled(t *testing.T) {
	t.Setenv("PHOTOFLOW_DATA_DIR", t.TempDir())
	t.Setenv("PHOTOFLOW_CACHE_ENABLED", "false")

	cfg := loadTestConfig(t)
	if cfg.CacheEnabled {
		t.Error("CacheEnabled = true despite PHOTOFLOW_CACHE_ENABLED=false")
	}
}

func TestLoadConfigCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("PHOTOFLOW_DATA_DIR", dir)

	cfg := loadTestConfig(t)
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, dir)
	}
}
