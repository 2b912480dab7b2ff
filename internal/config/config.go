// Package config loads the server's environment-sourced configuration once
// at boot and hands out an immutable value to every other component.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable, boot-time configuration for the whole service.
type Config struct {
	KernelBundle          string
	KernelsPath           string
	Workers               int
	CacheL1Size           int
	CacheTTL              time.Duration
	CacheL2URL            string
	CacheL2Enabled        bool
	RateLimitEnabled      bool
	RateLimitPerMinute    int
	PatchesPath           string
	AyanamshaRegistryPath string
	DefaultParityProfile  string
	ListenAddr            string
	RequestDeadline       time.Duration
	QueueHighWaterMark    int
}

// Load reads a .env file if present (ignored when absent, matching a local
// dev convenience rather than a hard requirement) and then populates Config
// from the process environment, applying defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		KernelBundle:          getEnv("INVOLUTION_KERNEL_BUNDLE", "de440"),
		KernelsPath:           getEnv("INVOLUTION_KERNELS_PATH", "./configs/kernels"),
		PatchesPath:           getEnv("INVOLUTION_PATCHES_PATH", "./configs/patches.json"),
		AyanamshaRegistryPath: getEnv("INVOLUTION_AYANAMSHA_REGISTRY", "./configs/ayanamshas.yaml"),
		DefaultParityProfile:  getEnv("INVOLUTION_DEFAULT_PARITY_PROFILE", "strict_history"),
		ListenAddr:            getEnv("INVOLUTION_LISTEN_ADDR", ":8080"),
		CacheL2URL:            getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.Workers, err = getEnvInt("INVOLUTION_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.CacheL1Size, err = getEnvInt("INVOLUTION_CACHE_L1_SIZE", 10_000); err != nil {
		return nil, err
	}
	if cfg.QueueHighWaterMark, err = getEnvInt("INVOLUTION_QUEUE_HIGH_WATER_MARK", 1024); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("INVOLUTION_RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvDuration("INVOLUTION_CACHE_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestDeadline, err = getEnvDuration("INVOLUTION_REQUEST_DEADLINE", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled, err = getEnvBool("INVOLUTION_RATE_LIMIT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.CacheL2Enabled, err = getEnvBool("INVOLUTION_CACHE_L2_ENABLED", cfg.CacheL2URL != ""); err != nil {
		return nil, err
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("config: INVOLUTION_WORKERS must be >= 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
