package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	"github.com/ironsheep/disc-photo-mcp/internal/pipeline"
)

// relPath is the config file location under the XDG config directory.
const relPath = "disc-photo-mcp/config.yaml"

// EnvLogLevel overrides Log.Level when set.
const EnvLogLevel = "DISC_MCP_LOG_LEVEL"

// Config is the server and CLI configuration.
type Config struct {
	Output Output `yaml:"output"`
	Fetch  Fetch  `yaml:"fetch"`
	Batch  Batch  `yaml:"batch"`
	Log    Log    `yaml:"log"`
	Stamp  Stamp  `yaml:"stamp"`
}

// Output controls how cropped photos are encoded.
type Output struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

// Fetch controls remote image loading.
type Fetch struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// Batch controls batch processing.
type Batch struct {
	Concurrency int `yaml:"concurrency"`
}

// Log controls the logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Stamp controls stamp recognition.
type Stamp struct {
	// Language is the Tesseract language code.
	Language string `yaml:"language"`

	// Catalog is an optional path to a disc catalog that replaces the
	// built-in one.
	Catalog string `yaml:"catalog"`

	// TessdataPrefix is an optional traineddata directory.
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Output: Output{
			Format:  imaging.FormatJPEG,
			Quality: imaging.DefaultQuality,
		},
		Fetch: Fetch{
			Timeout:   imaging.DefaultFetchTimeout,
			MaxBytes:  imaging.DefaultMaxBytes,
			UserAgent: imaging.DefaultUserAgent,
		},
		Batch: Batch{Concurrency: pipeline.DefaultConcurrency},
		Log:   Log{Level: "warn"},
		Stamp: Stamp{Language: "eng"},
	}
}

// DefaultPath returns the config file path under the XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, relPath)
}

// Load reads the YAML file at path over the defaults. An empty path means
// DefaultPath. A missing file returns the defaults with ErrConfigNotFound;
// callers decide whether that matters.
//
// The EnvLogLevel variable is applied after the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the XDG directory when path is
// empty.
func (c *Config) Save(path string) (string, error) {
	if path == "" {
		p, err := xdg.ConfigFile(relPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve config path: %w", err)
		}
		path = p
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

func (c *Config) applyEnv() {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Log.Level = lvl
	}
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case imaging.FormatJPEG, "jpg", imaging.FormatPNG, imaging.FormatWebP:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return ErrInvalidQuality
	}
	if c.Fetch.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.MaxBytes <= 0 {
		return ErrInvalidMaxBytes
	}
	if c.Batch.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	return lvl, nil
}

// LoadOptions returns the loader settings. cache may be nil.
func (c *Config) LoadOptions(cache *imaging.ImageCache) imaging.LoadOptions {
	return imaging.LoadOptions{
		Timeout:   c.Fetch.Timeout,
		MaxBytes:  c.Fetch.MaxBytes,
		UserAgent: c.Fetch.UserAgent,
		Cache:     cache,
	}
}

// RenderOptions returns the encoder settings.
func (c *Config) RenderOptions() imaging.RenderOptions {
	return imaging.RenderOptions{
		Format:  c.Output.Format,
		Quality: c.Output.Quality,
	}
}
