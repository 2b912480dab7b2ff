package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"INVOLUTION_KERNEL_BUNDLE", "INVOLUTION_KERNELS_PATH", "INVOLUTION_WORKERS",
		"INVOLUTION_CACHE_L1_SIZE", "INVOLUTION_CACHE_TTL", "REDIS_URL",
		"INVOLUTION_CACHE_L2_ENABLED", "INVOLUTION_RATE_LIMIT_ENABLED",
		"INVOLUTION_RATE_LIMIT_PER_MINUTE", "INVOLUTION_PATCHES_PATH",
		"INVOLUTION_AYANAMSHA_REGISTRY", "INVOLUTION_DEFAULT_PARITY_PROFILE",
		"INVOLUTION_LISTEN_ADDR", "INVOLUTION_REQUEST_DEADLINE", "INVOLUTION_QUEUE_HIGH_WATER_MARK",
	} {
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range []string{
			"INVOLUTION_KERNEL_BUNDLE", "INVOLUTION_WORKERS", "INVOLUTION_CACHE_TTL",
		} {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KernelBundle != "de440" {
		t.Errorf("KernelBundle = %q, want de440", cfg.KernelBundle)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.CacheTTL != 6*time.Hour {
		t.Errorf("CacheTTL = %v, want 6h", cfg.CacheTTL)
	}
	if !cfg.RateLimitEnabled {
		t.Error("expected rate limiting enabled by default")
	}
	if cfg.CacheL2Enabled {
		t.Error("expected L2 disabled by default when REDIS_URL is unset")
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("INVOLUTION_WORKERS", "8")
	os.Setenv("INVOLUTION_KERNEL_BUNDLE", "de441")
	os.Setenv("INVOLUTION_CACHE_TTL", "30m")
	defer os.Unsetenv("INVOLUTION_WORKERS")
	defer os.Unsetenv("INVOLUTION_KERNEL_BUNDLE")
	defer os.Unsetenv("INVOLUTION_CACHE_TTL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.KernelBundle != "de441" {
		t.Errorf("KernelBundle = %q, want de441", cfg.KernelBundle)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m", cfg.CacheTTL)
	}
}

func TestLoad_RejectsZeroWorkers(t *testing.T) {
	clearEnv(t)
	os.Setenv("INVOLUTION_WORKERS", "0")
	defer os.Unsetenv("INVOLUTION_WORKERS")

	if _, err := Load(); err == nil {
		t.Error("expected an error when INVOLUTION_WORKERS is 0")
	}
}

func TestLoad_RejectsMalformedInt(t *testing.T) {
	clearEnv(t)
	os.Setenv("INVOLUTION_WORKERS", "not-a-number")
	defer os.Unsetenv("INVOLUTION_WORKERS")

	if _, err := Load(); err == nil {
		t.Error("expected an error for a malformed INVOLUTION_WORKERS value")
	}
}
