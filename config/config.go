// Package config provides configuration loading for the syntaxis tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the complete configuration of the parser pipeline and server.
type Config struct {
	Rules  RulesConfig  `yaml:"rules"`
	Worker WorkerConfig `yaml:"worker"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Trace  TraceConfig  `yaml:"trace"`
}

// RulesConfig names the rule files. Relative paths are resolved against
// the directory of the configuration file.
type RulesConfig struct {
	// Grammar is the chart grammar file.
	Grammar string `yaml:"grammar" validate:"required"`
	// Completer is the completion rule file (optional).
	Completer string `yaml:"completer"`
	// Labeler is the dependency labeling rule file (optional).
	Labeler string `yaml:"labeler"`
	// Start overrides the grammar start symbol.
	Start string `yaml:"start"`
}

// WorkerConfig bounds batch parallelism.
type WorkerConfig struct {
	// Count is the number of sentences processed at once.
	Count int `yaml:"count" validate:"gte=1,lte=256"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr        string   `yaml:"addr" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins"`
	// Watch reloads the rule files when they change on disk.
	Watch bool `yaml:"watch"`
	// MaxSentences caps the sentences accepted in one request.
	MaxSentences int `yaml:"max_sentences" validate:"gte=1"`
	// RateLimit is the sustained parse requests per second, 0 for no limit.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	RateBurst int     `yaml:"rate_burst" validate:"gte=0"`
}

// TraceConfig selects where pipeline spans are exported.
type TraceConfig struct {
	Exporter string `yaml:"exporter" validate:"oneof=none stdout"`
}

// DefaultConfig returns a Config with sensible defaults. Rules.Grammar
// has no default.
func DefaultConfig() *Config {
	return &Config{
		Worker: WorkerConfig{Count: 1},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			CORSOrigins:  []string{"*"},
			MaxSentences: 1000,
		},
		Trace: TraceConfig{Exporter: "none"},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.resolve(filepath.Dir(path))
	return config, nil
}

// resolve makes relative rule paths relative to dir.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Rules.Grammar, &c.Rules.Completer, &c.Rules.Labeler} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Rules.Grammar != "" {
		c.Rules.Grammar = other.Rules.Grammar
	}
	if other.Rules.Completer != "" {
		c.Rules.Completer = other.Rules.Completer
	}
	if other.Rules.Labeler != "" {
		c.Rules.Labeler = other.Rules.Labeler
	}
	if other.Rules.Start != "" {
		c.Rules.Start = other.Rules.Start
	}

	if other.Worker.Count != 0 {
		c.Worker.Count = other.Worker.Count
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if len(other.Server.CORSOrigins) > 0 {
		c.Server.CORSOrigins = other.Server.CORSOrigins
	}
	if other.Server.Watch {
		c.Server.Watch = true
	}
	if other.Server.MaxSentences != 0 {
		c.Server.MaxSentences = other.Server.MaxSentences
	}
	if other.Server.RateLimit != 0 {
		c.Server.RateLimit = other.Server.RateLimit
	}
	if other.Server.RateBurst != 0 {
		c.Server.RateBurst = other.Server.RateBurst
	}

	if other.Trace.Exporter != "" {
		c.Trace.Exporter = other.Trace.Exporter
	}
}
