// Package config loads the YAML configuration shared by the trainer
// binaries. Missing fields fall back to sensible defaults so an empty file
// is a valid configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nrodrigues/niri-trainer-go/internal/session"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Annotations struct {
		File      string `yaml:"file"`
		ImagesDir string `yaml:"images_dir"`
		ExportDir string `yaml:"export_dir"`
	} `yaml:"annotations"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Game struct {
		StartingLives int `yaml:"starting_lives"`
	} `yaml:"game"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Game.StartingLives < 0 {
		return nil, fmt.Errorf("config: starting_lives must not be negative, got %d", cfg.Game.StartingLives)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}
	if c.Annotations.File == "" {
		c.Annotations.File = "./annotations.json"
	}
	if c.Annotations.ImagesDir == "" {
		c.Annotations.ImagesDir = "./images"
	}
	if c.Annotations.ExportDir == "" {
		c.Annotations.ExportDir = "./exports"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./niri-trainer.db"
	}
	if c.Game.StartingLives == 0 {
		c.Game.StartingLives = session.DefaultLives
	}
}
