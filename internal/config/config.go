// Package config provides JSON-based application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const configFile = "config.json"

// Config holds the straightening tool's settings.
type Config struct {
	// RootDir is the directory holding one subdirectory per property.
	RootDir string `json:"root_dir"`
	// Workers caps the number of images processed concurrently.
	// Zero means one worker per CPU.
	Workers int `json:"workers"`
	// PreviewWidth is the long edge of review previews in pixels.
	PreviewWidth int `json:"preview_width"`
	// JPEGQuality is the quality used when writing corrected JPEGs.
	JPEGQuality int `json:"jpeg_quality"`

	path string
}

// Default returns a config with sensible defaults and no root directory.
func Default() Config {
	return Config{
		Workers:      runtime.NumCPU(),
		PreviewWidth: 480,
		JPEGQuality:  92,
	}
}

// Load reads the config from ~/.config/realtr-straighten/config.json.
// A missing file yields defaults; a malformed file is an error.
func Load() (Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "realtr-straighten", configFile))
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (Config, error) {
	c := Default()
	c.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c, nil
}

// Save writes the config back to the path it was loaded from.
func (c Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no backing file")
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
