package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Rules.Grammar = "/rules/grammar.gram"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Worker.Count)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Server.Watch)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, "none", cfg.Trace.Exporter)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{name: "missing grammar", modify: func(c *Config) { c.Rules.Grammar = "" }, wantErr: true},
		{name: "zero workers", modify: func(c *Config) { c.Worker.Count = 0 }, wantErr: true},
		{name: "too many workers", modify: func(c *Config) { c.Worker.Count = 1000 }, wantErr: true},
		{name: "unknown log level", modify: func(c *Config) { c.Log.Level = "verbose" }, wantErr: true},
		{name: "unknown log format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "missing addr", modify: func(c *Config) { c.Server.Addr = "" }, wantErr: true},
		{name: "negative rate", modify: func(c *Config) { c.Server.RateLimit = -1 }, wantErr: true},
		{name: "stdout traces", modify: func(c *Config) { c.Trace.Exporter = "stdout" }},
		{name: "unknown exporter", modify: func(c *Config) { c.Trace.Exporter = "jaeger" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "syntaxis.yaml")

	content := `
rules:
  grammar: grammar.gram
  completer: /abs/completer.dat
worker:
  count: 4
server:
  addr: ":9090"
  watch: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "grammar.gram"), cfg.Rules.Grammar)
	assert.Equal(t, "/abs/completer.dat", cfg.Rules.Completer)
	assert.Empty(t, cfg.Rules.Labeler)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, "info", cfg.Log.Level, "defaults kept for unset fields")
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	cfg := validConfig()
	cfg.Merge(&Config{
		Rules:  RulesConfig{Start: "S"},
		Worker: WorkerConfig{Count: 8},
		Log:    LogConfig{Level: "debug"},
		Server: ServerConfig{RateLimit: 2.5},
		Trace:  TraceConfig{Exporter: "stdout"},
	})

	assert.Equal(t, "/rules/grammar.gram", cfg.Rules.Grammar)
	assert.Equal(t, "S", cfg.Rules.Start)
	assert.Equal(t, 8, cfg.Worker.Count)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, "stdout", cfg.Trace.Exporter)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	cfg.Merge(nil)
	assert.Equal(t, 8, cfg.Worker.Count)
}

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "syntaxis.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("rules:\n  grammar: g.gram\n"), 0644))

	cfg, err := NewLoader(nil).Load(configPath, &Config{Worker: WorkerConfig{Count: 2}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "g.gram"), cfg.Rules.Grammar)
	assert.Equal(t, 2, cfg.Worker.Count)

	_, err = NewLoader(nil).Load(filepath.Join(tmpDir, "absent.yaml"), nil)
	assert.Error(t, err, "defaults alone lack a grammar")

	cfg, err = NewLoader(nil).Load(filepath.Join(tmpDir, "absent.yaml"), &Config{Rules: RulesConfig{Grammar: "x.gram"}})
	require.NoError(t, err)
	assert.Equal(t, "x.gram", cfg.Rules.Grammar)
}
