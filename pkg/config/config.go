// Package config provides a reusable loader for Domino runtime configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/domino-sim/domino/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the runtime configuration shared by cmd/domino's subcommands:
// the ambient knobs that sit outside any one fixture or scenario file.
type Config struct {
	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Addr    string `mapstructure:"addr" json:"addr"`
	} `mapstructure:"metrics" json:"metrics"`

	Budget struct {
		QueryMax   uint64 `mapstructure:"query_max" json:"query_max"`
		ResolveMax uint64 `mapstructure:"resolve_max" json:"resolve_max"`
	} `mapstructure:"budget" json:"budget"`

	Fixtures struct {
		SearchPath string `mapstructure:"search_path" json:"search_path"`
	} `mapstructure:"fixtures" json:"fixtures"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

func defaults() Config {
	var c Config
	c.Logging.Level = "info"
	c.Metrics.Enabled = false
	c.Metrics.Addr = ":9090"
	c.Budget.QueryMax = 1_000_000
	c.Budget.ResolveMax = 1_000_000
	c.Fixtures.SearchPath = "."
	return c
}

// Load reads configuration from path if given, or from a "domino" config
// file discovered on the current directory and $HOME/.domino, merging over
// the package defaults. A missing discovered file is not an error; a missing
// explicit path is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	c := defaults()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("domino")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.domino")
	}
	v.SetEnvPrefix("DOMINO")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.Wrap(err, "config: read")
		}
		if path != "" {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, utils.Wrap(err, "config: unmarshal")
	}

	AppConfig = c
	return &c, nil
}

// LoadFromEnv loads configuration from the path named by DOMINO_CONFIG, or
// from the discovered default location if unset.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("DOMINO_CONFIG", ""))
}
