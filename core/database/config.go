package database

import (
	"fmt"
	"strings"
)

// Config holds Postgres connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// NormalizeConfig validates required database settings and fills defaults.
func NormalizeConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil database config")
	}
	if strings.TrimSpace(cfg.User) == "" {
		return fmt.Errorf("database user is required (DB_USER)")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("database name is required (DB_NAME)")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "localhost"
	}
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "5432"
	}
	if strings.TrimSpace(cfg.SSLMode) == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}
	return nil
}
