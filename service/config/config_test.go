package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("NOTIFICATION_AUTHORIZATION", "")
	t.Setenv("BACKGROUND_FETCH_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.NotificationAuthorization != "authorized" {
		t.Fatalf("expected authorized, got %q", cfg.NotificationAuthorization)
	}
	if cfg.BackgroundFetchTimeout != 30*time.Second {
		t.Fatalf("expected 30s fetch timeout, got %s", cfg.BackgroundFetchTimeout)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without API_KEY")
	}
}

func TestLoadRejectsUnknownAuthorization(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("NOTIFICATION_AUTHORIZATION", "maybe")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown authorization status")
	}
}

func TestLoadParsesDurations(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("BACKGROUND_FETCH_TIMEOUT", "5s")
	t.Setenv("DELIVERY_BASE_DELAY", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BackgroundFetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.BackgroundFetchTimeout)
	}
	if cfg.DeliveryBaseDelay != 500*time.Millisecond {
		t.Fatalf("expected fallback 500ms, got %s", cfg.DeliveryBaseDelay)
	}
}
