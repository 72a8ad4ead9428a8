package server

import (
	"fmt"
	"time"
)

// Config holds HTTP server settings.
type Config struct {
	Host         string
	Port         int
	Mode         string // "development" or "production"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a config listening on all interfaces, port 8080.
// Generation can take a while, so the write timeout is generous.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		Mode:         "production",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Mode {
	case "", "development", "production", "test":
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	return nil
}
