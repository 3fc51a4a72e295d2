package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/run"
)

// RenderCmd implements the 'render' command, the CI entrypoint.
type RenderCmd struct {
	Workspace   string `help:"Workspace root to search for input files" placeholder:"DIR"`
	OutputDir   string `short:"o" name:"output-dir" help:"Root of the rendered output tree" placeholder:"DIR"`
	Formats     string `short:"f" help:"Comma-separated output formats (html, pdf, markdown)"`
	ToolVersion string `name:"tool-version" help:"Render tool release to use (version or 'latest')"`
	Incremental bool   `short:"i" help:"Skip files unchanged since the last successful run"`
	Repo        string `name:"repo" help:"Render a remote Git repository instead of the workspace" placeholder:"URL"`
	Branch      string `help:"Branch to check out with --repo"`
}

func (r *RenderCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner, err := run.New(cfg)
	if err != nil {
		return err
	}
	runner.WithStore(run.OpenHistory(cfg)).WithEmitter(run.ConnectEmitter(cfg))
	defer runner.Close()

	_, err = runner.Execute(ctx)
	return err
}

// apply layers command-line flags over the loaded configuration. Flags have
// the highest precedence; empty flags leave the config untouched.
func (r *RenderCmd) apply(cfg *config.Config) {
	if r.Workspace != "" {
		cfg.Workspace = r.Workspace
	}
	if r.OutputDir != "" {
		cfg.OutputDir = r.OutputDir
	}
	if r.Formats != "" {
		cfg.Formats = r.Formats
	}
	if r.ToolVersion != "" {
		cfg.ToolVersion = r.ToolVersion
	}
	if r.Incremental {
		cfg.Incremental = true
	}
	if r.Repo != "" {
		cfg.Source = &config.SourceConfig{URL: r.Repo, Branch: r.Branch}
	}
}
