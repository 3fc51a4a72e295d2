package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "renderci.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearInputEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITHUB_WORKSPACE",
		"INPUT_PATTERNS", "INPUT_IGNORE", "INPUT_OUTPUT-DIR", "INPUT_FORMATS",
		"INPUT_LAYOUT", "INPUT_VARS-URL", "INPUT_CONFIG-URL", "INPUT_EXTRA-ARGS",
		"INPUT_TOOL-VERSION", "INPUT_CONCURRENCY", "INPUT_INCREMENTAL", "INPUT_WORKSPACE",
		"RENDERCI_PATTERNS", "RENDERCI_OUTPUT_DIR", "RENDERCI_FORMATS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearInputEnv(t)

	cfg, err := Load(writeConfig(t, "output_dir: out\n"))
	require.NoError(t, err)

	require.Equal(t, ".", cfg.Workspace)
	require.Equal(t, "**/*.md", cfg.Patterns)
	require.Equal(t, "out", cfg.OutputDir)
	require.Equal(t, "html", cfg.Formats)
	require.Equal(t, "latest", cfg.ToolVersion)
	require.Equal(t, "github.com", cfg.Install.ReleasesHost)
	require.Equal(t, "docsmith", cfg.Install.Tool)
	require.Equal(t, 3, cfg.Install.MaxRetries)
	require.Equal(t, RetryBackoffExponential, cfg.Install.RetryBackoff)
	require.Equal(t, 50, cfg.History.Keep)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearInputEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, rcerrors.IsCategory(err, rcerrors.CategoryConfig))
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearInputEnv(t)

	_, err := Load(writeConfig(t, "output_dir: out\npaterns: '*.md'\n"))
	require.Error(t, err)
	require.True(t, rcerrors.IsCategory(err, rcerrors.CategoryConfig))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearInputEnv(t)
	t.Setenv("INPUT_FORMATS", "pdf,markdown")
	t.Setenv("INPUT_OUTPUT-DIR", "env-out")
	t.Setenv("INPUT_TOOL-VERSION", "v2.1.0")
	t.Setenv("RENDERCI_PATTERNS", "docs/**/*.md")

	cfg, err := Load(writeConfig(t, "formats: html\noutput_dir: file-out\npatterns: '*.md'\n"))
	require.NoError(t, err)

	require.Equal(t, "pdf,markdown", cfg.Formats)
	require.Equal(t, "env-out", cfg.OutputDir)
	require.Equal(t, "v2.1.0", cfg.ToolVersion)
	require.Equal(t, "docs/**/*.md", cfg.Patterns)
}

func TestLoadInputEnvWinsOverFallback(t *testing.T) {
	clearInputEnv(t)
	t.Setenv("INPUT_FORMATS", "pdf")
	t.Setenv("RENDERCI_FORMATS", "markdown")

	cfg, err := Load(writeConfig(t, "output_dir: out\n"))
	require.NoError(t, err)
	require.Equal(t, "pdf", cfg.Formats)
}

func TestLoadExpandsEnvInFile(t *testing.T) {
	clearInputEnv(t)
	t.Setenv("DOCS_OUT", "expanded")

	cfg, err := Load(writeConfig(t, "output_dir: ${DOCS_OUT}\n"))
	require.NoError(t, err)
	require.Equal(t, "expanded", cfg.OutputDir)
}

func TestLoadBadConcurrencyEnv(t *testing.T) {
	clearInputEnv(t)
	t.Setenv("INPUT_CONCURRENCY", "four")

	_, err := Load(writeConfig(t, "output_dir: out\n"))
	require.Error(t, err)
	require.True(t, rcerrors.IsCategory(err, rcerrors.CategoryValidation))
}

func TestLoadGithubWorkspaceDefault(t *testing.T) {
	clearInputEnv(t)
	t.Setenv("GITHUB_WORKSPACE", "/srv/checkout")

	cfg, err := Load(writeConfig(t, "output_dir: out\n"))
	require.NoError(t, err)
	require.Equal(t, "/srv/checkout", cfg.Workspace)
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderci.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	clearInputEnv(t)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "rendered", cfg.OutputDir)
	require.True(t, cfg.History.Enabled)
}
