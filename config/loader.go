package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFile is looked up in the working directory and its
// parents when no explicit path is given.
const ProjectConfigFile = "syntaxis.yaml"

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load builds the configuration from the defaults, the file at path
// (or the nearest syntaxis.yaml when path is empty) and finally
// overrides, then validates it.
func (l *Loader) Load(path string, overrides *Config) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = l.findProjectConfig()
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		switch {
		case err == nil:
			l.logger.Debug("loaded config", slog.String("path", path))
			config.Merge(fileConfig)
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Debug("no config file", slog.String("path", path))
		default:
			return nil, err
		}
	}

	config.Merge(overrides)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// findProjectConfig walks up from the working directory.
func (l *Loader) findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
