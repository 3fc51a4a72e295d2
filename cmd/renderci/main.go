package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	_ "go.uber.org/automaxprocs"

	"github.com/docsmith/renderci/cmd/renderci/commands"
	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("renderci"),
		kong.Description("CI automation for rendering Markdown documentation with docsmith."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("renderci %s (commit %s, built %s)",
			version.Version, version.GitCommit, version.BuildTime)},
	)

	if err := ctx.Run(&commands.Global{}, &cli); err != nil {
		rcerrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
