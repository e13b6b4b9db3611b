package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("EMAIL_NOTIFICATIONS_ENABLED", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("got port %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("got driver %q, want postgres", cfg.DBDriver)
	}
	if cfg.EmailNotificationsEnabled {
		t.Fatal("email notifications default to off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("EMAIL_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()
	if cfg.Port != "9090" || cfg.DBDriver != "sqlite" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.EmailNotificationsEnabled {
		t.Fatal("email notifications should be enabled")
	}
}

func TestLoadBadBoolFallsBack(t *testing.T) {
	t.Setenv("EMAIL_NOTIFICATIONS_ENABLED", "definitely")

	if Load().EmailNotificationsEnabled {
		t.Fatal("unparseable value must fall back to the default")
	}
}
