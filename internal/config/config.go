package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// DefaultPath is where Load looks when no explicit config file is given.
const DefaultPath = "renderci.yaml"

// Config represents the resolved run configuration. Precedence, lowest to
// highest: built-in defaults, YAML file, INPUT_*/RENDERCI_* environment
// variables, command-line flags (applied by the CLI layer).
type Config struct {
	// Workspace is the directory patterns and ignore entries are relative to.
	Workspace string `yaml:"workspace,omitempty"`

	// Patterns holds newline-separated glob patterns selecting input files.
	Patterns string `yaml:"patterns,omitempty"`

	// Ignore holds newline-separated workspace-relative paths to skip.
	Ignore string `yaml:"ignore,omitempty"`

	// OutputDir is the root of the mirrored output tree.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Formats is a comma-separated list of output formats (html, pdf, markdown).
	Formats string `yaml:"formats,omitempty"`

	// Layout names a template reference forwarded to the tool for html/pdf.
	Layout string `yaml:"layout,omitempty"`

	// VarsURL is an optional variables-file URL or path forwarded to the tool.
	VarsURL string `yaml:"vars_url,omitempty"`

	// ToolConfig is an optional tool config file URL or path (-c flag).
	ToolConfig string `yaml:"config_url,omitempty"`

	// ExtraArgs is a free-form shell-style argument string appended to every
	// tool invocation.
	ExtraArgs string `yaml:"extra_args,omitempty"`

	// ToolVersion selects the tool release ("latest" or an explicit version).
	ToolVersion string `yaml:"tool_version,omitempty"`

	// Concurrency caps parallelism; 0 means one per available CPU.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Incremental skips files whose fingerprint matches the previous run.
	Incremental bool `yaml:"incremental,omitempty"`

	Install InstallConfig `yaml:"install,omitempty"`
	Source  *SourceConfig `yaml:"source,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Verify  VerifyConfig  `yaml:"verify,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// InstallConfig tunes tool download, caching and retry behavior.
type InstallConfig struct {
	ReleasesHost      string           `yaml:"releases_host,omitempty"`
	Org               string           `yaml:"org,omitempty"`
	Tool              string           `yaml:"tool,omitempty"`
	CacheDir          string           `yaml:"cache_dir,omitempty"` // empty = user cache dir
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
}

// SourceConfig describes an optional remote Git source to render instead of
// the local workspace.
type SourceConfig struct {
	URL    string      `yaml:"url"`
	Branch string      `yaml:"branch,omitempty"`
	Dir    string      `yaml:"dir,omitempty"` // checkout dir, relative to workspace
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents authentication for remote sources.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// HistoryConfig controls the local run-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Keep    int    `yaml:"keep,omitempty"` // retained runs; older ones are pruned
}

// VerifyConfig controls post-render output checks.
type VerifyConfig struct {
	Links bool `yaml:"links,omitempty"` // check local links in produced HTML
}

// EventsConfig controls run-event publishing. An empty URL disables it.
type EventsConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce    string `yaml:"debounce,omitempty"`
	Schedule    string `yaml:"schedule,omitempty"` // interval between periodic full re-renders; empty disables
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// Load reads configuration from the given file (if it exists), then applies
// environment overrides and defaults, and validates the result. An empty path
// means DefaultPath; a missing explicit path is an error, a missing default
// path is not.
func Load(configPath string) (*Config, error) {
	loadDotEnv()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references before decoding so secrets can stay
		// out of the file.
		expanded := os.ExpandEnv(string(data))
		if err := unmarshalStrict([]byte(expanded), cfg); err != nil {
			return nil, rcerrors.Wrap(err, rcerrors.CategoryConfig, rcerrors.SeverityFatal, fmt.Sprintf("failed to parse %s", configPath))
		}
	case os.IsNotExist(err):
		if explicit {
			return nil, rcerrors.ConfigNotFound(configPath)
		}
	default:
		return nil, rcerrors.Wrap(err, rcerrors.CategoryConfig, rcerrors.SeverityFatal, fmt.Sprintf("failed to read %s", configPath))
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// unmarshalStrict decodes YAML rejecting unknown keys, so typos in config
// files surface instead of being silently dropped.
func unmarshalStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workspace == "" {
		if ws := os.Getenv("GITHUB_WORKSPACE"); ws != "" {
			cfg.Workspace = ws
		} else {
			cfg.Workspace = "."
		}
	}
	if cfg.Patterns == "" {
		cfg.Patterns = "**/*.md"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "rendered"
	}
	if cfg.Formats == "" {
		cfg.Formats = "html"
	}
	if cfg.ToolVersion == "" {
		cfg.ToolVersion = "latest"
	}
	if cfg.Install.ReleasesHost == "" {
		cfg.Install.ReleasesHost = "github.com"
	}
	if cfg.Install.Org == "" {
		cfg.Install.Org = "docsmith"
	}
	if cfg.Install.Tool == "" {
		cfg.Install.Tool = "docsmith"
	}
	if cfg.Install.MaxRetries == 0 {
		cfg.Install.MaxRetries = 3
	}
	if cfg.Install.RetryBackoff == "" {
		cfg.Install.RetryBackoff = RetryBackoffExponential
	}
	if cfg.Install.RetryInitialDelay == "" {
		cfg.Install.RetryInitialDelay = "500ms"
	}
	if cfg.Install.RetryMaxDelay == "" {
		cfg.Install.RetryMaxDelay = "10s"
	}
	if cfg.Source != nil && cfg.Source.Branch == "" {
		cfg.Source.Branch = "main"
	}
	if cfg.Source != nil && cfg.Source.Dir == "" {
		cfg.Source.Dir = ".renderci/source"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".renderci/history.db"
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = 50
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "renderci.runs"
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = "RENDERCI"
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "400ms"
	}
}

// Init creates a configuration file with example content.
func Init(configPath string, force bool) error {
	if configPath == "" {
		configPath = DefaultPath
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		return rcerrors.New(rcerrors.CategoryConfig, rcerrors.SeverityFatal,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	example := Config{
		Patterns:    "docs/**/*.md\nREADME.md",
		Ignore:      "docs/internal/draft.md",
		OutputDir:   "rendered",
		Formats:     "html,pdf",
		Layout:      "",
		ToolVersion: "latest",
		Install: InstallConfig{
			ReleasesHost: "github.com",
			Org:          "docsmith",
			Tool:         "docsmith",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".renderci/history.db",
			Keep:    50,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return rcerrors.Wrap(err, rcerrors.CategoryConfig, rcerrors.SeverityFatal, "failed to marshal example config")
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return rcerrors.Wrap(err, rcerrors.CategoryFileSystem, rcerrors.SeverityFatal, fmt.Sprintf("failed to write %s", configPath))
	}
	return nil
}
