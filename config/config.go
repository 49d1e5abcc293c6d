/*
config.go - Application configuration

PURPOSE:
  Loads server and database settings from an optional config file and
  the environment, with sane defaults so the server runs with no
  config at all.

PRECEDENCE (highest wins):
  1. Command-line flags (applied by the caller)
  2. Environment variables, prefixed SPARAGNE_
     (e.g. SPARAGNE_SERVER_ADDR=:3000, SPARAGNE_DATABASE_PATH=/data/s.db)
  3. Config file (YAML), either the path given to Load or
     sparagne.yaml in the working directory
  4. Built-in defaults

DEFAULTS:
  server.addr    :8080
  database.path  sparagne.db  (":memory:" for an in-memory database)

SEE ALSO:
  - cmd/server/main.go: where this is loaded
*/
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
}

// Load reads configuration from the given file path. An empty path
// falls back to sparagne.yaml in the working directory, and a missing
// default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "sparagne.db")

	v.SetEnvPrefix("SPARAGNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("sparagne")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
