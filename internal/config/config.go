// Package config loads the bot configuration from diarybot.yaml with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"diarybot/internal/core/domain"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "diarybot.yaml"

// EnvPrefix maps DIARYBOT_TELEGRAM_TOKEN to telegram.token and so on.
const EnvPrefix = "DIARYBOT_"

type TelegramConfig struct {
	Token       string `koanf:"token"`
	PollTimeout int    `koanf:"poll_timeout"`
}

type StorageConfig struct {
	Dir string `koanf:"dir"`
}

type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen"`
}

type BuildConfig struct {
	Image  string             `koanf:"image"`
	Recipe domain.BuildRecipe `koanf:"recipe"`
}

type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Storage  StorageConfig  `koanf:"storage"`
	Admin    AdminConfig    `koanf:"admin"`
	Build    BuildConfig    `koanf:"build"`
}

// ApplyDefaults fills everything the file may omit.
func (c *Config) ApplyDefaults() {
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = 30
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "."
	}
	if c.Admin.Listen == "" {
		c.Admin.Listen = ":3000"
	}
	if c.Build.Image == "" {
		c.Build.Image = "diarybot:latest"
	}
	if c.Build.Recipe.BaseImage == "" {
		c.Build.Recipe = domain.DefaultRecipe()
	}
}

// Load reads the config file (when present), then environment overrides.
// The path may be empty; a missing explicit path is an error, a missing
// default file is not.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s not found", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// The token has always come from TELEGRAM_BOT_TOKEN in deployments;
	// keep honoring it over the file.
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}
