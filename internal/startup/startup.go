// Package startup loads environment configuration, validates the data
// directories and logs the startup banner.
package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"photoflow/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Config holds all application configuration.
type Config struct {
	DataDir        string
	CacheDir       string
	CacheMaxMB     int
	CacheEnabled   bool
	Concurrency    int
	PacingWindow   int
	PageDelay      time.Duration
	MetricsPort    string
	MetricsEnabled bool

	// Derived paths
	AlbumDBPath    string
	CredentialsDir string
}

// CacheMaxBytes returns the cache size limit in bytes, 0 meaning
// unlimited.
func (c *Config) CacheMaxBytes() int64 {
	return int64(c.CacheMaxMB) * 1024 * 1024
}

// LoadConfig loads and validates configuration from environment
// variables. All variables carry the PHOTOFLOW_ prefix.
func LoadConfig(logger logging.Logger) (*Config, error) {
	log := logging.Or(logger)
	printBanner(log)

	log.Info("------------------------------------------------------------")
	log.Info("CONFIGURATION")
	log.Info("------------------------------------------------------------")

	dataDir := getEnv("PHOTOFLOW_DATA_DIR", defaultDataDir())
	cacheDir := getEnv("PHOTOFLOW_CACHE_DIR", "")
	cacheMaxMB := getEnvInt(log, "PHOTOFLOW_CACHE_MAX_MB", 0)
	cacheEnabled := getEnvBool(log, "PHOTOFLOW_CACHE_ENABLED", true)
	concurrency := getEnvInt(log, "PHOTOFLOW_CONCURRENCY", 10)
	pacingWindow := getEnvInt(log, "PHOTOFLOW_PACING_WINDOW", 5)
	pageDelayStr := getEnv("PHOTOFLOW_PAGE_DELAY", "1s")
	metricsPort := getEnv("PHOTOFLOW_METRICS_PORT", "9090")
	metricsEnabled := getEnvBool(log, "PHOTOFLOW_METRICS_ENABLED", false)

	log.Info("  PHOTOFLOW_DATA_DIR:        %s", dataDir)
	log.Info("  PHOTOFLOW_CACHE_DIR:       %s", cacheDir)
	log.Info("  PHOTOFLOW_CACHE_MAX_MB:    %d", cacheMaxMB)
	log.Info("  PHOTOFLOW_CACHE_ENABLED:   %v", cacheEnabled)
	log.Info("  PHOTOFLOW_CONCURRENCY:     %d", concurrency)
	log.Info("  PHOTOFLOW_PACING_WINDOW:   %d", pacingWindow)
	log.Info("  PHOTOFLOW_PAGE_DELAY:      %s", pageDelayStr)
	log.Info("  PHOTOFLOW_METRICS_PORT:    %s", metricsPort)
	log.Info("  PHOTOFLOW_METRICS_ENABLED: %v", metricsEnabled)
	log.Info("  LOG_LEVEL:                 %s", logging.LevelFromEnv())

	pageDelay, err := time.ParseDuration(pageDelayStr)
	if err != nil || pageDelay < 0 {
		log.Warn("  Invalid PHOTOFLOW_PAGE_DELAY, using default: 1s")
		pageDelay = time.Second
	}
	if concurrency <= 0 {
		log.Warn("  Invalid PHOTOFLOW_CONCURRENCY, using default: 10")
		concurrency = 10
	}
	if pacingWindow <= 0 {
		log.Warn("  Invalid PHOTOFLOW_PACING_WINDOW, using default: 5")
		pacingWindow = 5
	}

	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(dataDir, "cache")
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}

	// The cache directory is optional: when it cannot be created the
	// run proceeds uncached.
	if cacheEnabled {
		cacheEnabled = setupOptionalDir(log, cacheDir, "cache")
	}

	config := &Config{
		DataDir:        dataDir,
		CacheDir:       cacheDir,
		CacheMaxMB:     cacheMaxMB,
		CacheEnabled:   cacheEnabled,
		Concurrency:    concurrency,
		PacingWindow:   pacingWindow,
		PageDelay:      pageDelay,
		MetricsPort:    metricsPort,
		MetricsEnabled: metricsEnabled,
		AlbumDBPath:    filepath.Join(dataDir, "albums.db"),
		CredentialsDir: filepath.Join(dataDir, "credentials"),
	}

	log.Info("")
	log.Info("  Feature availability:")
	log.Info("    Tensor cache: %s", enabledString(config.CacheEnabled))
	log.Info("    Metrics:      %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".photoflow")
	}
	return ".photoflow"
}

func printBanner(log logging.Logger) {
	log.Info("============================================================")
	log.Info("  photoflow %s (%s)", Version, Commit)
	log.Info("  built %s with %s for %s/%s", BuildTime, GoVersion, runtime.GOOS, runtime.GOARCH)
	log.Info("============================================================")
}

func setupOptionalDir(log logging.Logger, path, name string) bool {
	log.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		log.Warn("    Failed to create %s directory: %v", name, err)
		log.Warn("    %s will be disabled", name)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		log.Warn("    %s directory is not writable: %v", name, err)
		log.Warn("    %s will be disabled", name)
		return false
	}
	log.Debug("    [OK] %s directory ready", name)
	return true
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	return os.Remove(testFile)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(log logging.Logger, key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(log logging.Logger, key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
