// Package render invokes the external document-rendering tool. The tool is
// an opaque black box: one process invocation per (input file, format) pair,
// exit code 0 on success, with the output path chosen by the caller.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/logfields"
)

// Renderer abstracts the rendering step so dispatch logic can be exercised
// without a real binary. The production implementation shells out
// (ToolRenderer); tests inject a StubRenderer.
type Renderer interface {
	Render(ctx context.Context, input string, format config.Format, outputPath string, opts Options) error
}

// Options carries the per-run settings shared by every invocation.
type Options struct {
	ToolConfig string   // optional config file forwarded via -c
	Layout     string   // optional layout reference, html/pdf only
	VarsURL    string   // optional variables file URL
	ExtraArgs  []string // free-form arguments, already shell-split
}

// OptionsFromConfig builds shared render options, splitting the free-form
// argument string shell-style.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	extra, err := ParseExtraArgs(cfg.ExtraArgs)
	if err != nil {
		return Options{}, err
	}
	return Options{
		ToolConfig: cfg.ToolConfig,
		Layout:     cfg.Layout,
		VarsURL:    cfg.VarsURL,
		ExtraArgs:  extra,
	}, nil
}

// ToolRenderer invokes the installed tool binary.
type ToolRenderer struct {
	binPath string
}

// NewToolRenderer creates a renderer around an installed binary path.
func NewToolRenderer(binPath string) *ToolRenderer {
	return &ToolRenderer{binPath: binPath}
}

func (r *ToolRenderer) Render(ctx context.Context, input string, format config.Format, outputPath string, opts Options) error {
	args := BuildArgs(input, format, outputPath, opts)

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("invoking render tool",
		logfields.Tool(r.binPath),
		logfields.File(input),
		logfields.Format(string(format)),
		logfields.Output(outputPath))

	err := cmd.Run()

	if out := strings.TrimSpace(stdout.String()); out != "" {
		slog.Debug("tool stdout", slog.String("output", out))
	}
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		slog.Debug("tool stderr", slog.String("output", errOut))
	}

	if err != nil {
		// The tool may report the failure on either stream.
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			return fmt.Errorf("%w: %s", err, output)
		}
		return err
	}
	return nil
}
