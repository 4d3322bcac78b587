// Package config loads render settings from YAML
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Server holds the web front end settings
type Server struct {
	Addr      string `yaml:"addr"`
	ScenesDir string `yaml:"scenes_dir"`
	StaticDir string `yaml:"static_dir"`
}

// Config holds everything needed to render a scene.
// Zero values mean "not set" so flags can fill them in.
type Config struct {
	Width      int         `yaml:"width"`
	Height     int         `yaml:"height"`
	Jobs       int         `yaml:"jobs"` // 0 renders synchronously
	Scene      string      `yaml:"scene"`
	SceneFile  string      `yaml:"scene_file,omitempty"`
	Output     string      `yaml:"output,omitempty"`
	Background *[3]float64 `yaml:"background,omitempty"` // overrides the scene background
	LogLevel   string      `yaml:"log_level,omitempty"`

	Server Server `yaml:"server"`
}

// Default returns the settings used when nothing else is given
func Default() *Config {
	return &Config{
		Width:    640,
		Height:   480,
		Jobs:     0,
		Scene:    "default",
		LogLevel: "info",
		Server: Server{
			Addr:      ":8080",
			ScenesDir: "scenes",
			StaticDir: "web/static",
		},
	}
}

// Load reads a YAML config file
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the config as YAML
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Merge overlays every value set in other onto c
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Width > 0 {
		c.Width = other.Width
	}
	if other.Height > 0 {
		c.Height = other.Height
	}
	if other.Jobs > 0 {
		c.Jobs = other.Jobs
	}
	c.Scene = firstNonEmpty(other.Scene, c.Scene)
	c.SceneFile = firstNonEmpty(other.SceneFile, c.SceneFile)
	c.Output = firstNonEmpty(other.Output, c.Output)
	c.LogLevel = firstNonEmpty(other.LogLevel, c.LogLevel)
	if other.Background != nil {
		bg := *other.Background
		c.Background = &bg
	}
	c.Server.Addr = firstNonEmpty(other.Server.Addr, c.Server.Addr)
	c.Server.ScenesDir = firstNonEmpty(other.Server.ScenesDir, c.Server.ScenesDir)
	c.Server.StaticDir = firstNonEmpty(other.Server.StaticDir, c.Server.StaticDir)
}

// Validate checks the settings a render depends on
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs %d must not be negative", ErrInvalidConfig, c.Jobs)
	}
	if c.Scene == "" && c.SceneFile == "" {
		return fmt.Errorf("%w: no scene or scene_file", ErrInvalidConfig)
	}
	if c.Background != nil {
		for _, v := range c.Background {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: background %v is not finite", ErrInvalidConfig, *c.Background)
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
