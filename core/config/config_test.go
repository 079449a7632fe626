package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("GOOGLE_MAPS_API_KEY", "key")
}

func TestLoadEnvOnlyDefaults(t *testing.T) {
	setSecrets(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Line.ChannelToken != "token" || cfg.Line.ChannelSecret != "secret" || cfg.Places.APIKey != "key" {
		t.Fatalf("secrets not read from env: %+v", cfg)
	}
	if cfg.Line.CallbackPath != "/callback" || cfg.Server.Port != 5000 || !cfg.Line.PushFallback {
		t.Fatalf("line/server defaults wrong: %+v %+v", cfg.Line, cfg.Server)
	}
	if cfg.Places.RadiusM != 1000 || cfg.Places.MaxResults != 5 || cfg.Places.Language != "zh-TW" || cfg.Places.TimeoutMS != 5000 {
		t.Fatalf("places defaults wrong: %+v", cfg.Places)
	}
	if cfg.Session.Backend != SessionMemory || cfg.Line.DedupeWindowSeconds != 300 {
		t.Fatalf("session defaults wrong: %+v", cfg.Session)
	}
	if cfg.TelegramEnabled() {
		t.Fatal("telegram must be off without a token")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("metrics defaults wrong: %+v", cfg.Metrics)
	}
}

func TestLoadMissingFileNotAllowed(t *testing.T) {
	setSecrets(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	setSecrets(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
line:
  callback_path: hook
server:
  port: 8080
places:
  radius_m: 500
  max_results: 3
session:
  backend: Redis
  ttl_seconds: 60
  redis:
    addr: localhost:6379
audit:
  brokers: ["kafka:9092"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9090")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("env must override yaml port, got %d", cfg.Server.Port)
	}
	if cfg.Line.CallbackPath != "/hook" {
		t.Fatalf("callback path = %q", cfg.Line.CallbackPath)
	}
	if cfg.Places.RadiusM != 500 || cfg.Places.MaxResults != 3 {
		t.Fatalf("places = %+v", cfg.Places)
	}
	if cfg.Session.Backend != SessionRedis || cfg.Session.Redis.KeyPrefix != "roulette:" {
		t.Fatalf("session = %+v", cfg.Session)
	}
	if cfg.Audit.Topic != "roulette-events" {
		t.Fatalf("audit topic default = %q", cfg.Audit.Topic)
	}
}

func TestNormalizeErrors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Line:   LineConfig{ChannelToken: "t", ChannelSecret: "s"},
			Places: PlacesConfig{APIKey: "k"},
		}
	}
	cases := map[string]func(c *Config){
		"line channel access token": func(c *Config) { c.Line.ChannelToken = "" },
		"line channel secret":       func(c *Config) { c.Line.ChannelSecret = " " },
		"places api key":            func(c *Config) { c.Places.APIKey = "" },
		"server.port":               func(c *Config) { c.Server.Port = 70000 },
		"places.radius_m":           func(c *Config) { c.Places.RadiusM = 60000 },
		"places.max_results":        func(c *Config) { c.Places.MaxResults = 21 },
		"invalid session.backend":   func(c *Config) { c.Session.Backend = "etcd" },
		"session.redis.addr":        func(c *Config) { c.Session.Backend = "redis" },
		"database.host":             func(c *Config) { c.Session.Backend = "postgres" },
		"invalid telegram.run_mode": func(c *Config) { c.Telegram = TelegramConfig{Token: "x", RunMode: "push"} },
		"webhook.url":               func(c *Config) { c.Telegram = TelegramConfig{Token: "x", RunMode: "webhook"} },
		"rate_limit.exclude_updates": func(c *Config) {
			c.Telegram.Token = "x"
			c.RateLimit.ExcludeUpdates = []string{"inline_query"}
		},
	}
	for want, mutate := range cases {
		cfg := base()
		mutate(cfg)
		err := Normalize(cfg)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: err = %v", want, err)
		}
	}
}

func TestNormalizeTelegram(t *testing.T) {
	cfg := &Config{
		Line:      LineConfig{ChannelToken: "t", ChannelSecret: "s"},
		Places:    PlacesConfig{APIKey: "k"},
		Telegram:  TelegramConfig{Token: "1:abc", RunMode: "Polling"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback "}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude = %v", cfg.RateLimit.ExcludeUpdates)
	}
}
