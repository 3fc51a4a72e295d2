package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/discover"
	"github.com/docsmith/renderci/internal/run"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Workspace string `help:"Workspace root to search for input files" placeholder:"DIR"`
	Titles    bool   `short:"t" help:"Read each file and show its document title"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if d.Workspace != "" {
		cfg.Workspace = d.Workspace
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner, err := run.New(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := runner.PrepareWorkspace(ctx); err != nil {
		return err
	}
	files, err := runner.Discover()
	if err != nil {
		return err
	}

	fmt.Printf("Discovered %d files\n", len(files))
	if d.Titles {
		for _, df := range discover.Describe(files) {
			if df.Title != "" {
				fmt.Printf("  %s\t%s\n", df.RelPath, df.Title)
			} else {
				fmt.Printf("  %s\n", df.RelPath)
			}
		}
		return nil
	}
	for _, f := range files {
		fmt.Printf("  %s\n", f.RelPath)
	}
	return nil
}
