package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/m3rciful/diaglink/core/database"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"TG_BOT_TOKEN"`
}

// HTTPConfig specifies the listener for the public HTTP surface.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
}

// LinksConfig holds the destinations embedded into outbound messages.
type LinksConfig struct {
	// AppURL is the public base URL of the diagnostic client; issued
	// links are built as AppURL/?t=<token>.
	AppURL string `yaml:"app_url" envconfig:"APP_URL"`
	// GroupInviteURL is the fixed group-invite destination offered after
	// a diagnostic completes.
	GroupInviteURL string `yaml:"group_invite_url" envconfig:"TG_GROUP_INVITE_LINK"`
	// PayURL is optional; when set a second button with a payment
	// destination is attached to the completion notice.
	PayURL string `yaml:"pay_url" envconfig:"PAY_URL"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	File        string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for per-user update rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates all configuration of the service.
type Config struct {
	Telegram  TelegramConfig      `yaml:"telegram"`
	HTTP      HTTPConfig          `yaml:"http"`
	Links     LinksConfig         `yaml:"links"`
	Database  coredatabase.Config `yaml:"database"`
	Logging   LoggingConfig       `yaml:"logging"`
	RateLimit RateLimitConfig     `yaml:"rate_limit"`
}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables always overlay file values. An empty path skips the
// file and configures from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration and adjusts defaults. It is the
// fail-fast gate: a config that passes Normalize is servable.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required (TG_BOT_TOKEN)")
	}

	cfg.Links.AppURL = strings.TrimRight(strings.TrimSpace(cfg.Links.AppURL), "/")
	if cfg.Links.AppURL == "" {
		return fmt.Errorf("public app url is required (APP_URL)")
	}
	if strings.TrimSpace(cfg.Links.GroupInviteURL) == "" {
		return fmt.Errorf("group invite link is required (TG_GROUP_INVITE_LINK)")
	}
	cfg.Links.PayURL = strings.TrimSpace(cfg.Links.PayURL)

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		cfg.HTTP.Listen = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.Port < 0 {
		return fmt.Errorf("http.port must be > 0")
	}

	if err := coredatabase.NormalizeConfig(&cfg.Database); err != nil {
		return err
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
