package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global carries state shared by subcommands if we need it later.
type Global struct{}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default renderci.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render   RenderCmd   `cmd:"" help:"Render the matched Markdown files to the configured formats"`
	Discover DiscoverCmd `cmd:"" help:"List the files a render run would process, without rendering"`
	Install  InstallCmd  `cmd:"" help:"Install the render tool and print its path"`
	Watch    WatchCmd    `cmd:"" help:"Render once, then re-render files as they change"`
	History  HistoryCmd  `cmd:"" help:"Show recent runs from the history store"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
