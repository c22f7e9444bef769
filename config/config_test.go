package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRuntimeConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := RuntimeConfig{Name: "vaultpass"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level in development, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := RuntimeConfig{Name: "vaultpass", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info log level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("runtime bounds get defaults", func(t *testing.T) {
		cfg := RuntimeConfig{Name: "vaultpass"}
		cfg.ApplyDefaults()
		if cfg.EventBus.HistoryCapacity != 100 || cfg.EventBus.MaxListeners != 100 {
			t.Errorf("unexpected eventbus defaults: %+v", cfg.EventBus)
		}
		if cfg.Cache.DefaultTTL != 5*time.Minute || cfg.Cache.MaxEntries != 1000 {
			t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
		}
		if cfg.Performance.SamplingRate != 1.0 || cfg.Performance.WindowSize != 1000 {
			t.Errorf("unexpected performance defaults: %+v", cfg.Performance)
		}
		if cfg.Health.CacheTTL != 30*time.Second {
			t.Errorf("unexpected health defaults: %+v", cfg.Health)
		}
	})
}

func TestRuntimeConfigValidate(t *testing.T) {
	valid := func() RuntimeConfig {
		cfg := RuntimeConfig{Name: "vaultpass", Environment: "production"}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*RuntimeConfig)
		wantErr string
	}{
		{"valid config", func(c *RuntimeConfig) {}, ""},
		{"ephemeral diag port", func(c *RuntimeConfig) { c.Diag.Addr = "localhost:0" }, ""},
		{"missing name", func(c *RuntimeConfig) { c.Name = "" }, "name"},
		{"bad environment", func(c *RuntimeConfig) { c.Environment = "qa" }, "environment"},
		{"sampling rate above one", func(c *RuntimeConfig) { c.Performance.SamplingRate = 1.5 }, "sampling_rate"},
		{"negative listeners", func(c *RuntimeConfig) { c.EventBus.MaxListeners = -1 }, "max_listeners"},
		{"bad diag addr", func(c *RuntimeConfig) { c.Diag.Addr = "not a hostport" }, "addr"},
		{"bad log level", func(c *RuntimeConfig) { c.Logging.Level = "verbose" }, "level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: vaultpass
environment: staging
version: "1.0.0"
eventbus:
  max_listeners: 50
cache:
  max_entries: 200
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg RuntimeConfig
	if err := LoadConfig("vaultpass", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "vaultpass" {
		t.Errorf("expected name 'vaultpass', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.EventBus.MaxListeners != 50 {
		t.Errorf("expected 50 max listeners, got %d", cfg.EventBus.MaxListeners)
	}
	if cfg.Cache.MaxEntries != 200 {
		t.Errorf("expected 200 cache entries, got %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadConfigMissingFileSucceeds(t *testing.T) {
	var cfg RuntimeConfig
	if err := LoadConfig("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverFindsStandardLocations(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/vaultpass/config.yml": true,
		"./.env":                     true,
	}}
	resolver := &Resolver{FileSystem: fs}

	files := resolver.ResolveFiles("vaultpass", LoaderConfig{})
	if files.ConfigFile != "./cmd/vaultpass/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}
}

func TestResolverPrefersExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("vaultpass", LoaderConfig{
		ConfigFile: "/etc/vaultpass/config.yml",
		EnvFile:    "/etc/vaultpass/.env",
	})
	if files.ConfigFile != "/etc/vaultpass/config.yml" || files.EnvFile != "/etc/vaultpass/.env" {
		t.Errorf("explicit paths must win: %+v", files)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("CACHE_DEFAULT_TTL")

	want := map[string]bool{
		"cache_default_ttl": false,
		"cache.default.ttl": false,
		"cache.default_ttl": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for key, found := range want {
		if !found {
			t.Errorf("missing variant %q in %v", key, variants)
		}
	}
}
