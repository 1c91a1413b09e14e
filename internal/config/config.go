// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App     AppConfig
	Storage StorageConfig
	Tools   ToolsConfig
	Git     GitConfig
	Log     LogConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Debug bool
}

// StorageConfig holds the cache and result directory layout.
type StorageConfig struct {
	// CacheDir holds downloaded dataset material.
	CacheDir string
	// ResultsDir holds per-tool analysis output trees.
	ResultsDir string
}

// ToolsConfig holds tool invocation configuration.
type ToolsConfig struct {
	// Timeout is the per-tool invocation timeout.
	Timeout time.Duration
	// Concurrency bounds the orchestrator worker pool. Zero means
	// one worker per registered tool.
	Concurrency int
	// Enabled restricts tool adapters to the named subset. Empty
	// means all registered adapters.
	Enabled []string
}

// GitConfig holds repository checkout configuration.
type GitConfig struct {
	Token        string
	CloneTimeout time.Duration
	// MaxRepoSize skips repository units larger than this many bytes.
	// Zero disables the limit.
	MaxRepoSize int64
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	defaultBase := filepath.Join(home, ".sastbench")

	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("SASTBENCH_APP_NAME", "sastbench"),
			Debug: getEnvBool("SASTBENCH_DEBUG", false),
		},
		Storage: StorageConfig{
			CacheDir:   getEnv("SASTBENCH_CACHE_DIR", filepath.Join(defaultBase, "cache")),
			ResultsDir: getEnv("SASTBENCH_RESULTS_DIR", filepath.Join(defaultBase, "results")),
		},
		Tools: ToolsConfig{
			Timeout:     getEnvDuration("SASTBENCH_TOOL_TIMEOUT", 15*time.Minute),
			Concurrency: getEnvInt("SASTBENCH_TOOL_CONCURRENCY", 0),
			Enabled:     getEnvSlice("SASTBENCH_TOOLS", nil),
		},
		Git: GitConfig{
			Token:        getEnv("SASTBENCH_GIT_TOKEN", ""),
			CloneTimeout: getEnvDuration("SASTBENCH_GIT_CLONE_TIMEOUT", 5*time.Minute),
			MaxRepoSize:  getEnvInt64("SASTBENCH_MAX_REPO_SIZE", 512<<20),
		},
		Log: LogConfig{
			Level:  getEnv("SASTBENCH_LOG_LEVEL", "info"),
			Format: getEnv("SASTBENCH_LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Tools.Timeout <= 0 {
		return fmt.Errorf("tool timeout must be positive, got %s", c.Tools.Timeout)
	}
	if c.Tools.Concurrency < 0 {
		return fmt.Errorf("tool concurrency must be >= 0, got %d", c.Tools.Concurrency)
	}
	if c.Git.MaxRepoSize < 0 {
		return fmt.Errorf("max repo size must be >= 0, got %d", c.Git.MaxRepoSize)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
