package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("QUIZ_SEED", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.QuizSeed != 0 {
		t.Fatalf("QuizSeed = %d, want 0 (non-deterministic)", cfg.QuizSeed)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.InviteTTLDays != 7 {
		t.Fatalf("InviteTTLDays = %d", cfg.InviteTTLDays)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("QUIZ_SEED", "42")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SMTP_HOST", "mail.example")
	t.Setenv("SMTP_ENABLED", "no")

	cfg := FromEnv()
	if cfg.QuizSeed != 42 {
		t.Fatalf("QuizSeed = %d", cfg.QuizSeed)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.SMTPPort)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SMTPEnabled() {
		t.Fatalf("SMTP_ENABLED=no should disable mail")
	}
}
