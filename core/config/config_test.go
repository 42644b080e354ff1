package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Links.AppURL = "https://diag.example.com/"
	cfg.Links.GroupInviteURL = "https://t.me/+invite"
	cfg.Database.User = "diaglink"
	cfg.Database.Name = "diaglink"
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.HTTP.Listen != "0.0.0.0" || cfg.HTTP.Port != 8080 {
		t.Errorf("listen defaults = %s:%d, want 0.0.0.0:8080", cfg.HTTP.Listen, cfg.HTTP.Port)
	}
	if strings.HasSuffix(cfg.Links.AppURL, "/") {
		t.Errorf("app url %q must be trimmed of trailing slash", cfg.Links.AppURL)
	}
}

func TestNormalizeFailsFast(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = " " }},
		{"missing app url", func(c *Config) { c.Links.AppURL = "" }},
		{"missing invite link", func(c *Config) { c.Links.GroupInviteURL = "" }},
		{"missing db user", func(c *Config) { c.Database.User = "" }},
		{"negative port", func(c *Config) { c.HTTP.Port = -1 }},
		{"bad rate limit exclusion", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := Normalize(cfg); err == nil {
				t.Fatal("expected Normalize to reject config")
			}
		})
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "MESSAGE"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != "callback" || cfg.RateLimit.ExcludeUpdates[1] != "message" {
		t.Errorf("exclusions = %v, want normalized lower-case", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("APP_URL", "https://diag.example.com")
	t.Setenv("TG_GROUP_INVITE_LINK", "https://t.me/+invite")
	t.Setenv("PAY_URL", "https://pay.example.com")
	t.Setenv("DB_USER", "diaglink")
	t.Setenv("DB_NAME", "diaglink")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Links.PayURL != "https://pay.example.com" {
		t.Errorf("pay url = %q", cfg.Links.PayURL)
	}
}
