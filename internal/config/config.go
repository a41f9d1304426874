// Package config resolves runtime settings from a TOML file, the
// environment and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultDataSource = "dashboard/data.json"
	DefaultDataDir    = "tmpdata/"
	DefaultPort       = 3000
	DefaultModel      = "claude-haiku-4-5"
)

// Config is the resolved configuration.
type Config struct {
	DataSource      string
	DataDir         string
	Port            int
	LogLevel        string
	Model           string
	AnthropicAPIKey string
}

// FileConfig represents the TOML configuration file. Pointer fields tell
// unset keys apart from zero values.
type FileConfig struct {
	Data     *string       `toml:"data"`
	DataDir  *string       `toml:"data-dir"`
	LogLevel *string       `toml:"log-level"`
	Server   ServerConfig  `toml:"server"`
	Insight  InsightConfig `toml:"insight"`
}

// ServerConfig maps the [server] table.
type ServerConfig struct {
	Port *int `toml:"port"`
}

// InsightConfig maps the [insight] table.
type InsightConfig struct {
	Model *string `toml:"model"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataSource: DefaultDataSource,
		DataDir:    DefaultDataDir,
		Port:       DefaultPort,
		LogLevel:   "info",
		Model:      DefaultModel,
	}
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "examdash", "config.toml")
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// LoadFile reads a TOML config from path. A missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return fc, nil
}

// Load layers defaults, the TOML file at path and the environment, in that
// order of increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	fc, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.apply(fc)
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) apply(fc FileConfig) {
	if fc.Data != nil {
		c.DataSource = *fc.Data
	}
	if fc.DataDir != nil {
		c.DataDir = *fc.DataDir
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.Server.Port != nil {
		c.Port = *fc.Server.Port
	}
	if fc.Insight.Model != nil {
		c.Model = *fc.Insight.Model
	}
}

func (c *Config) applyEnv() {
	c.DataSource = getEnv("EXAMDASH_DATA", c.DataSource)
	c.DataDir = getEnv("EXAMDASH_DATA_DIR", c.DataDir)
	c.LogLevel = getEnv("EXAMDASH_LOG_LEVEL", c.LogLevel)
	c.Model = getEnv("EXAMDASH_MODEL", c.Model)
	c.Port = getEnvInt("EXAMDASH_PORT", c.Port)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
}

// LoadEnv loads .env files into the process environment. Missing files are
// skipped; variables already set are never overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WarehousePath is the DuckDB file the import command writes to.
func (c Config) WarehousePath() string {
	return filepath.Join(c.DataDir, "examdash.duckdb")
}

// LogPath is the structured log file.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "err.log")
}

// InsightEnabled reports whether an Anthropic key is configured.
func (c Config) InsightEnabled() bool {
	return c.AnthropicAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
