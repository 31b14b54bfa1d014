package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 30m
sqlite:
  path: results.db
quiz:
  ttl: 5m
remote:
  base_url: http://platform:3000
ai:
  provider: openai
  api_key: sk-test
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" || cfg.SQLite.Path != "results.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Remote.BaseURL != "http://platform:3000" || cfg.AI.APIKey != "sk-test" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := TTLDuration(cfg.Quiz.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("quiz ttl = %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Postgres.URL != "" || cfg.Redis.Addr != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ai:\n  provider: gemini\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AI.APIKey != "g-key" {
		t.Fatalf("api key = %q", cfg.AI.APIKey)
	}
}

func TestTTLDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"garbage", time.Minute},
		{"90s", 90 * time.Second},
	}
	for _, tc := range cases {
		if got := TTLDuration(tc.raw, time.Minute); got != tc.want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
