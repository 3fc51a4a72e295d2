package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/installer"
	"github.com/docsmith/renderci/internal/platform"
)

// InstallCmd implements the 'install' command: resolve, download and cache
// the render tool without rendering anything.
type InstallCmd struct {
	ToolVersion string `name:"tool-version" help:"Render tool release to install (version or 'latest')"`
}

func (i *InstallCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if i.ToolVersion != "" {
		cfg.ToolVersion = i.ToolVersion
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	target, err := platform.Current()
	if err != nil {
		return err
	}
	inst, err := installer.New(cfg, target)
	if err != nil {
		return err
	}
	binPath, err := inst.EnsureTool(ctx, cfg.ToolVersion)
	if err != nil {
		return err
	}

	fmt.Println(binPath)
	return nil
}
