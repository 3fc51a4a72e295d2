package render

import (
	shellwords "github.com/mattn/go-shellwords"

	"github.com/docsmith/renderci/internal/config"
	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// BuildArgs constructs the argument vector (after the binary name) for one
// tool invocation:
//
//	render [-c <config>] <format> -o <output> [--html-layout <layout>] [--vars <url>] [extra...] <input>
//
// The layout flag is emitted only for formats that support layouts.
func BuildArgs(input string, format config.Format, outputPath string, opts Options) []string {
	args := []string{"render"}
	if opts.ToolConfig != "" {
		args = append(args, "-c", opts.ToolConfig)
	}
	args = append(args, string(format), "-o", outputPath)
	if opts.Layout != "" && format.SupportsLayout() {
		args = append(args, "--html-layout", opts.Layout)
	}
	if opts.VarsURL != "" {
		args = append(args, "--vars", opts.VarsURL)
	}
	args = append(args, opts.ExtraArgs...)
	args = append(args, input)
	return args
}

// ParseExtraArgs splits a free-form argument string the way a shell would
// (quoting and escaping respected). An empty string yields no arguments.
func ParseExtraArgs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(raw)
	if err != nil {
		return nil, rcerrors.ValidationFailed("invalid extra arguments: " + err.Error())
	}
	return args, nil
}
