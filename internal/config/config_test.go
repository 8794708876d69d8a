package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.Env != "development" {
		t.Errorf("Env: got %q, want %q", cfg.Server.Env, "development")
	}
	if cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("RateLimit.Window: got %v, want %v", cfg.RateLimit.Window, 15*time.Minute)
	}
	if cfg.RateLimit.MaxRequests != 5 {
		t.Errorf("RateLimit.MaxRequests: got %d, want 5", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.SpamPenalty != 2 {
		t.Errorf("RateLimit.SpamPenalty: got %d, want 2", cfg.RateLimit.SpamPenalty)
	}
	if cfg.Recaptcha.MinScore != 0.5 {
		t.Errorf("Recaptcha.MinScore: got %v, want 0.5", cfg.Recaptcha.MinScore)
	}
	if cfg.Outbox.MaxRetries != 3 {
		t.Errorf("Outbox.MaxRetries: got %d, want 3", cfg.Outbox.MaxRetries)
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		t.Error("development must have default allowed origins")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RECAPTCHA_MIN_SCORE", "0.7")
	t.Setenv("OUTBOX_POLL_INTERVAL", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.RateLimit.Window != 30*time.Minute {
		t.Errorf("RateLimit.Window: got %v, want %v", cfg.RateLimit.Window, 30*time.Minute)
	}
	if cfg.RateLimit.MaxRequests != 10 {
		t.Errorf("RateLimit.MaxRequests: got %d, want 10", cfg.RateLimit.MaxRequests)
	}
	if cfg.Recaptcha.MinScore != 0.7 {
		t.Errorf("Recaptcha.MinScore: got %v, want 0.7", cfg.Recaptcha.MinScore)
	}
	if cfg.Outbox.PollInterval != 10*time.Second {
		t.Errorf("Outbox.PollInterval: got %v, want 10s", cfg.Outbox.PollInterval)
	}
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() without DB_PASSWORD must fail")
	}
}

func TestLoad_ProductionRequiresDeliverySettings(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://saraivavision.com.br")

	if _, err := Load(); err == nil {
		t.Fatal("production without EMAIL_FROM_ADDRESS must fail")
	}

	t.Setenv("EMAIL_FROM_ADDRESS", "noreply@saraivavision.com.br")
	if _, err := Load(); err == nil {
		t.Fatal("production without CONTACT_RECIPIENT must fail")
	}

	t.Setenv("CONTACT_RECIPIENT", "clinic@saraivavision.com.br")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Server.Env != "production" {
		t.Errorf("Env: got %q, want %q", cfg.Server.Env, "production")
	}
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "app",
		Password: "pw", Name: "contact", SSLMode: "require",
	}

	want := "host=db.internal port=5433 user=app password=pw dbname=contact sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
