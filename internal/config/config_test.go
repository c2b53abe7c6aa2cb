package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("MAIL_SENDER", "bot@example.com")
	t.Setenv("MAIL_PASSWORD", "secret")
	t.Setenv("MAIL_RECIPIENT", "owner@example.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Mail.Port != 587 || cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("unexpected mail config: %+v", cfg.Mail)
	}
	if len(cfg.Model.Candidates) != 2 || cfg.Model.Candidates[0] != "gemini-2.5-flash" {
		t.Errorf("unexpected model candidates: %v", cfg.Model.Candidates)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h session ttl, got %s", cfg.SessionTTL)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode without FRONTEND_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MODEL_CANDIDATES", " gemini-pro , ,gemini-flash ")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "https://rump.example")
	t.Setenv("FRONTEND_URL", "https://rump.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := strings.Join(cfg.Model.Candidates, ","); got != "gemini-pro,gemini-flash" {
		t.Errorf("unexpected candidates: %q", got)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("unexpected session ttl: %s", cfg.SessionTTL)
	}
	if cfg.IsDevelopment() {
		t.Error("expected production mode for public frontend URL")
	}
}

func TestLoadMissingModelKeyIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "GOOGLE_API_KEY") {
		t.Fatalf("expected key name in error: %v", err)
	}
}

func TestLoadMissingMailConfigIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("MAIL_RECIPIENT", "")
	t.Setenv("SMTP_PORT", "")

	_, err := Load()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	for _, key := range []string{"MAIL_RECIPIENT", "SMTP_PORT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected %s in error: %v", key, err)
		}
	}
}

func TestLoadRejectsBadSMTPPort(t *testing.T) {
	setRequired(t)
	t.Setenv("SMTP_PORT", "submission")

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
