package config

import (
	"os"
	"testing"
)

func TestLoadRequiresDSN(t *testing.T) {
	// envconfig treats a set-but-empty variable as provided, so the vars must
	// be truly unset; t.Setenv first registers the original values for restore.
	for _, key := range []string{"CP_DB_DSN", "CP_REDIS_URL", "CP_JWT_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when required variables are missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CP_DB_DSN", "postgres://localhost/coupons")
	t.Setenv("CP_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CP_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "3000" {
		t.Fatalf("expected default port 3000, got %s", cfg.App.Port)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev env by default")
	}
	if cfg.Sweeper.Interval.Hours() != 1 {
		t.Fatalf("expected 1h sweeper interval, got %s", cfg.Sweeper.Interval)
	}
	if cfg.JWT.Issuer != "coupon-platform" {
		t.Fatalf("unexpected issuer %s", cfg.JWT.Issuer)
	}
}
