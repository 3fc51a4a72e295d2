package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// dotEnvFiles are loaded in order. Variables already present in the
// environment win, which is godotenv's default.
var dotEnvFiles = []string{".env", ".env.local"}

func loadDotEnv() {
	for _, name := range dotEnvFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}

// lookupInput resolves a CI action input. GitHub-style runners expose an
// input named "output-dir" as INPUT_OUTPUT-DIR (dashes kept, uppercased);
// the RENDERCI_ fallback uses underscores for shells that cannot export
// dashed names.
func lookupInput(name string) (string, bool) {
	upper := strings.ToUpper(name)
	if v, ok := os.LookupEnv("INPUT_" + upper); ok && v != "" {
		return v, true
	}
	underscored := strings.ReplaceAll(upper, "-", "_")
	if v, ok := os.LookupEnv("RENDERCI_" + underscored); ok && v != "" {
		return v, true
	}
	return "", false
}

func applyEnvOverrides(cfg *Config) error {
	for name, target := range map[string]*string{
		"workspace":    &cfg.Workspace,
		"patterns":     &cfg.Patterns,
		"ignore":       &cfg.Ignore,
		"output-dir":   &cfg.OutputDir,
		"formats":      &cfg.Formats,
		"layout":       &cfg.Layout,
		"vars-url":     &cfg.VarsURL,
		"config-url":   &cfg.ToolConfig,
		"extra-args":   &cfg.ExtraArgs,
		"tool-version": &cfg.ToolVersion,
	} {
		if v, ok := lookupInput(name); ok {
			*target = v
		}
	}

	if v, ok := lookupInput("concurrency"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return rcerrors.ValidationFailed(fmt.Sprintf("concurrency must be an integer, got %q", v))
		}
		cfg.Concurrency = n
	}
	if v, ok := lookupInput("incremental"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return rcerrors.ValidationFailed(fmt.Sprintf("incremental must be a boolean, got %q", v))
		}
		cfg.Incremental = b
	}
	return nil
}
