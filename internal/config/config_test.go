package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DefaultAppointmentMinutes != 30 {
		t.Errorf("expected default appointment minutes 30, got %d", cfg.DefaultAppointmentMinutes)
	}
	if cfg.LLMProvider != "openai" {
		t.Errorf("expected default llm provider openai, got %s", cfg.LLMProvider)
	}
	if cfg.VoiceSessionTTL != 30*time.Minute {
		t.Errorf("expected default voice session ttl 30m, got %s", cfg.VoiceSessionTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_APPOINTMENT_MINUTES", "45")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("VOICE_SESSION_TTL", "10m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.praxisflow.de, https://staging.praxisflow.de")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.DefaultAppointmentMinutes != 45 {
		t.Errorf("expected 45 minutes, got %d", cfg.DefaultAppointmentMinutes)
	}
	if !cfg.RedisTLS {
		t.Error("expected redis tls enabled")
	}
	if cfg.VoiceSessionTTL != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %s", cfg.VoiceSessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://staging.praxisflow.de" {
		t.Errorf("expected trimmed origin, got %q", cfg.CORSAllowedOrigins[1])
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DEFAULT_APPOINTMENT_MINUTES", "soon")
	t.Setenv("VOICE_SESSION_TTL", "whenever")

	cfg := Load()

	if cfg.DefaultAppointmentMinutes != 30 {
		t.Errorf("expected fallback 30, got %d", cfg.DefaultAppointmentMinutes)
	}
	if cfg.VoiceSessionTTL != 30*time.Minute {
		t.Errorf("expected fallback 30m, got %s", cfg.VoiceSessionTTL)
	}
}
