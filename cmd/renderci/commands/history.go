package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of runs to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Listing reads the store directly; unlike render runs, a missing or
	// broken store is a real error here.
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %-8s  %s  %3d files  %3d outputs  %s\n",
			r.StartedAt.Format(time.RFC3339),
			r.Status,
			strings.Join(r.Formats, ","),
			r.FilesProcessed,
			len(r.OutputFiles),
			r.RunID)
		if r.Error != "" {
			fmt.Printf("    error: %s\n", r.Error)
		}
	}
	return nil
}
