package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("COOLDOWN_MINUTES", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Server.Port)
	}
	if cfg.CooldownDuration() != 5*time.Minute {
		t.Fatalf("expected 5m cooldown, got %s", cfg.CooldownDuration())
	}
	if cfg.Attempts.Ledger != DriverMemory || cfg.Attempts.Lock != DriverMemory {
		t.Fatalf("expected memory drivers, got %s/%s", cfg.Attempts.Ledger, cfg.Attempts.Lock)
	}
}

func TestLoadDerivesDrivers(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("COOLDOWN_MINUTES", "")

	path := writeConfig(t, `
redis:
  addr: localhost:6379
postgres:
  url: postgres://quiz@localhost/quiz
attempts:
  lock: redis
quiz:
  cooldownMinutes: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Attempts.Ledger != DriverPostgres {
		t.Fatalf("expected postgres ledger, got %s", cfg.Attempts.Ledger)
	}
	if cfg.Attempts.Lock != DriverRedis {
		t.Fatalf("explicit lock driver should win, got %s", cfg.Attempts.Lock)
	}
	if cfg.CooldownDuration() != 0 {
		t.Fatalf("explicit zero cooldown should be kept, got %s", cfg.CooldownDuration())
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("COOLDOWN_MINUTES", "2")

	path := writeConfig(t, "server:\n  port: \"8081\"\nquiz:\n  cooldownMinutes: 10\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected env port, got %s", cfg.Server.Port)
	}
	if cfg.CooldownDuration() != 2*time.Minute {
		t.Fatalf("expected env cooldown, got %s", cfg.CooldownDuration())
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("COOLDOWN_MINUTES", "")

	cases := map[string]string{
		"negative cooldown":    "quiz:\n  cooldownMinutes: -1\n",
		"unknown driver":       "attempts:\n  ledger: etcd\n",
		"redis without addr":   "attempts:\n  lock: redis\n",
		"mongo without db":     "mongo:\n  uri: mongodb://localhost\n",
		"postgres without url": "attempts:\n  ledger: postgres\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %s", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %s", got)
	}
}
