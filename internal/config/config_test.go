package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"FailurePolicy", cfg.FailurePolicy, "skip"},
		{"Concurrency", cfg.Concurrency, 0},
		{"OutputFormat", cfg.OutputFormat, OutputText},
		{"Simplify", cfg.Simplify, true},
		{"CacheEnabled", cfg.CacheEnabled, true},
		{"CacheDir", cfg.CacheDir, filepath.Join(".gcfg", "cache")},
		{"CacheMaxEntries", cfg.CacheMaxEntries, 10000},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() does not validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		errContains string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "abort policy", modify: func(c *Config) { c.FailurePolicy = "abort" }},
		{name: "upper case policy", modify: func(c *Config) { c.FailurePolicy = "ABORT" }},
		{name: "dot output", modify: func(c *Config) { c.OutputFormat = OutputDot }},
		{name: "cache disabled without dir", modify: func(c *Config) { c.CacheEnabled = false; c.CacheDir = "" }},
		{name: "valid excludes", modify: func(c *Config) { c.Exclude = []string{"**/*_gen.go", "cmd/**"} }},
		{
			name:        "invalid policy",
			modify:      func(c *Config) { c.FailurePolicy = "retry" },
			errContains: "invalid failure_policy",
		},
		{
			name:        "invalid output format",
			modify:      func(c *Config) { c.OutputFormat = "svg" },
			errContains: "invalid output_format",
		},
		{
			name:        "negative concurrency",
			modify:      func(c *Config) { c.Concurrency = -1 },
			errContains: "concurrency",
		},
		{
			name:        "cache without dir",
			modify:      func(c *Config) { c.CacheDir = "" },
			errContains: "cache_dir",
		},
		{
			name:        "cache without entries",
			modify:      func(c *Config) { c.CacheMaxEntries = 0 },
			errContains: "cache_max_entries",
		},
		{
			name:        "invalid exclude",
			modify:      func(c *Config) { c.Exclude = []string{"[oops"} },
			errContains: "invalid exclude pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.errContains)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		writeFile(t, path, "failure_policy: abort\nexclude:\n  - \"**/*_gen.go\"\n")

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error: %v", err)
		}
		if cfg.FailurePolicy != "abort" {
			t.Errorf("FailurePolicy = %q, want abort", cfg.FailurePolicy)
		}
		if !reflect.DeepEqual(cfg.Exclude, []string{"**/*_gen.go"}) {
			t.Errorf("Exclude = %v", cfg.Exclude)
		}
		if !cfg.Simplify || cfg.CacheMaxEntries != 10000 {
			t.Errorf("defaults were not kept: %+v", cfg)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		writeFile(t, path, "concurrency: [1, 2\n")
		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		writeFile(t, path, "output_format: svg\n")
		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(dir, "env.yaml")
		writeFile(t, path, "concurrency: 2\n")
		t.Setenv("GCFG_CONCURRENCY", "8")

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error: %v", err)
		}
		if cfg.Concurrency != 8 {
			t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
		}
	})
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "home", ".gcfg", "config.yaml")
	project := filepath.Join(dir, "project", ".gcfg", "config.yaml")
	writeFile(t, global, "concurrency: 1\noutput_format: json\nverbose: true\n")
	writeFile(t, project, "concurrency: 4\n")
	t.Setenv("GCFG_OUTPUT_FORMAT", "dot")
	t.Setenv("GCFG_CONCURRENCY", "2")

	cfg, err := load(global, project)
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("project config should win: Concurrency = %d", cfg.Concurrency)
	}
	if cfg.OutputFormat != OutputDot {
		t.Errorf("env should override global: OutputFormat = %q", cfg.OutputFormat)
	}
	if !cfg.Verbose {
		t.Error("global value should survive when nothing overrides it")
	}

	cfg, err = load(filepath.Join(dir, "none.yaml"), filepath.Join(dir, "none2.yaml"))
	if err != nil {
		t.Fatalf("load() without files error: %v", err)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2 from env", cfg.Concurrency)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GCFG_FAILURE_POLICY", "abort")
	t.Setenv("GCFG_SIMPLIFY", "false")
	t.Setenv("GCFG_CACHE_ENABLED", "0")
	t.Setenv("GCFG_CACHE_DIR", "/tmp/gcfg")
	t.Setenv("GCFG_CACHE_MAX_ENTRIES", "50")
	t.Setenv("GCFG_EXCLUDE", "a/**, ,b/*.go")
	t.Setenv("GCFG_VERBOSE", "yes")

	cfg := DefaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error: %v", err)
	}

	want := &Config{
		FailurePolicy:   "abort",
		OutputFormat:    OutputText,
		Simplify:        false,
		CacheEnabled:    false,
		CacheDir:        "/tmp/gcfg",
		CacheMaxEntries: 50,
		Exclude:         []string{"a/**", "b/*.go"},
		Verbose:         true,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("applyEnvOverrides() = %+v, want %+v", cfg, want)
	}
}

func TestApplyEnvOverrides_InvalidNumber(t *testing.T) {
	for _, key := range []string{"GCFG_CONCURRENCY", "GCFG_CACHE_MAX_ENTRIES"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "many")
			err := applyEnvOverrides(DefaultConfig())
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("expected error naming %s, got %v", key, err)
			}
		})
	}
}

func TestConfigSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	cfg := DefaultConfig()
	cfg.FailurePolicy = "abort"
	cfg.Exclude = []string{"gen/**"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	for _, key := range []string{"failure_policy: abort", "cache_max_entries: 10000", "- gen/**"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("saved config missing %q:\n%s", key, data)
		}
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch: %+v vs %+v", cfg, loaded)
	}
}
