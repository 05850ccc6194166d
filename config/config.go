// Package config loads server settings from the environment. Command line
// flags in main override whatever is loaded here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the match server settings.
type Config struct {
	Host        string `env:"TICTACTOE_HOST"         envDefault:"0.0.0.0"`
	Port        int    `env:"TICTACTOE_PORT"         envDefault:"8080"`
	StaticDir   string `env:"TICTACTOE_STATIC_DIR"   envDefault:"./static"`
	Debug       bool   `env:"TICTACTOE_DEBUG"        envDefault:"false"`
	Ngrok       bool   `env:"TICTACTOE_NGROK"        envDefault:"false"`
	NgrokAuth   string `env:"TICTACTOE_NGROK_AUTH"`
	NgrokDomain string `env:"TICTACTOE_NGROK_DOMAIN"`
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
