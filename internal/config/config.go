package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Config represents application configuration
type Config struct {
	// LogLevel is one of debug, info, warn, error, none.
	LogLevel string `json:"log_level"`
	// LogPath is the log file. If empty, logs go to stderr.
	LogPath string `json:"log_path,omitempty"`
	// Format is the fmt verb for printing results.
	Format string `json:"format"`
	// Trace prints the postfix trace of each evaluation.
	Trace bool `json:"trace"`
	// Listen is the address for the HTTP service.
	Listen string `json:"listen"`
	// History records evaluations in the database at HistoryPath.
	History     bool   `json:"history"`
	HistoryPath string `json:"history_path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel:    "warn",
		Format:      "%g",
		Listen:      "localhost:8080",
		History:     true,
		HistoryPath: filepath.Join(defaultStateDir(), "history.db"),
	}
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "calc")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", "calc")
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, "calc")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "calc")
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, "calc")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", "calc")
	default:
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, "calc")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", "calc")
	}
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

// Load reads the configuration at path over the defaults and then applies
// environment overrides. A missing file is not an error. If path is empty,
// DefaultPath is used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// use defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("CALC_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("CALC_LISTEN")); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("CALC_HISTORY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CALC_HISTORY %q: %w", v, err)
		}
		c.History = b
	}
	return nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
