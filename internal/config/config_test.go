package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LIVENESS_URL", "")
	t.Setenv("HISTORY_WINDOW_DAYS", "")
	t.Setenv("RATE_LIMIT_RPM", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.Env != DefaultEnv {
		t.Errorf("Env = %q, want %q", cfg.Env, DefaultEnv)
	}
	if cfg.HistoryWindowDays != DefaultHistoryWindowDays {
		t.Errorf("HistoryWindowDays = %d, want %d", cfg.HistoryWindowDays, DefaultHistoryWindowDays)
	}
	if cfg.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, DefaultMaxUploadBytes)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("HISTORY_WINDOW_DAYS", "30")
	t.Setenv("RATE_LIMIT_RPM", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.HistoryWindowDays != 30 {
		t.Errorf("HistoryWindowDays = %d, want 30", cfg.HistoryWindowDays)
	}
	if cfg.RateLimitRPM != 600 {
		t.Errorf("RateLimitRPM = %d, want 600", cfg.RateLimitRPM)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("HISTORY_WINDOW_DAYS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HistoryWindowDays != DefaultHistoryWindowDays {
		t.Errorf("HistoryWindowDays = %d, want default %d", cfg.HistoryWindowDays, DefaultHistoryWindowDays)
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	t.Setenv("HISTORY_WINDOW_DAYS", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for negative window")
	}
}
