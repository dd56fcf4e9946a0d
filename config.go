package gomcp

import (
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config carries the process-level settings read from the environment.
type Config struct {
	Host           string   `env:"MCP_HOST" envDefault:"127.0.0.1"`
	Port           int      `env:"MCP_PORT" envDefault:"8000"`
	Debug          bool     `env:"MCP_DEBUG" envDefault:"false"`
	ResourcePrefix string   `env:"MCP_RESOURCE_PREFIX" envDefault:"resource://"`
	AllowedOrigins []string `env:"MCP_ALLOWED_ORIGINS" envSeparator:","`
}

// LoadConfigFromEnv parses the MCP_* environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Addr joins host and port into a listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
