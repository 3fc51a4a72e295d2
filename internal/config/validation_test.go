package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{
		Patterns:  "**/*.md",
		OutputDir: "rendered",
		Formats:   "html",
	}
	applyDefaults(cfg)
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "no patterns",
			mutate:  func(c *Config) { c.Patterns = "\n\n" },
			wantMsg: "glob pattern",
		},
		{
			name:    "no output dir",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantMsg: "output directory",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Formats = "html,epub" },
			wantMsg: "unsupported format",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Concurrency = -2 },
			wantMsg: "concurrency",
		},
		{
			name:    "bad backoff",
			mutate:  func(c *Config) { c.Install.RetryBackoff = "quadratic" },
			wantMsg: "retry_backoff",
		},
		{
			name:    "bad retry delay",
			mutate:  func(c *Config) { c.Install.RetryInitialDelay = "soon" },
			wantMsg: "invalid duration",
		},
		{
			name:    "source without url",
			mutate:  func(c *Config) { c.Source = &SourceConfig{Branch: "main"} },
			wantMsg: "source.url",
		},
		{
			name: "bad auth type",
			mutate: func(c *Config) {
				c.Source = &SourceConfig{URL: "https://example.com/docs.git", Auth: &AuthConfig{Type: "oauth"}}
			},
			wantMsg: "auth.type",
		},
		{
			name:    "bad debounce",
			mutate:  func(c *Config) { c.Watch.Debounce = "fast" },
			wantMsg: "debounce",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestValidateCanonicalizesBackoff(t *testing.T) {
	cfg := validConfig()
	cfg.Install.RetryBackoff = "  Linear "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Install.RetryBackoff != RetryBackoffLinear {
		t.Fatalf("backoff = %q, want %q", cfg.Install.RetryBackoff, RetryBackoffLinear)
	}
}

func TestInstallRetryDelays(t *testing.T) {
	cfg := validConfig()
	initial, max := cfg.InstallRetryDelays()
	if initial.Milliseconds() != 500 {
		t.Errorf("initial delay = %v, want 500ms", initial)
	}
	if max.Seconds() != 10 {
		t.Errorf("max delay = %v, want 10s", max)
	}
}
