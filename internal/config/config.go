package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Provider struct {
		BaseURL  string `yaml:"base_url"`
		Timeout  string `yaml:"timeout"`
		Prefetch int    `yaml:"prefetch"`
	} `yaml:"provider"`
	Game struct {
		Hints bool   `yaml:"hints"`
		Grace string `yaml:"grace"`
	} `yaml:"game"`
}

// Load reads YAML config from path. A missing file yields defaults so the bot
// can run from environment variables alone.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{}
	cfg.Game.Hints = true
	cfg.Game.Grace = "2s"
	cfg.Provider.Prefetch = 3
	return cfg
}

// Duration parses a duration string or returns the fallback if empty/invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
