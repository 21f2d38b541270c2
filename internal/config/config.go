// Package config loads server configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server's runtime settings.
type Config struct {
	Addr            string        `env:"HG_ADDR" envDefault:":8080"`
	StaticDir       string        `env:"HG_STATIC_DIR" envDefault:"./static"`
	MaxPlayers      int           `env:"HG_MAX_PLAYERS" envDefault:"4"`
	HistoryLimit    int           `env:"HG_HISTORY_LIMIT" envDefault:"100"`
	SendBufferSize  int           `env:"HG_SEND_BUFFER" envDefault:"256"`
	ShutdownTimeout time.Duration `env:"HG_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
