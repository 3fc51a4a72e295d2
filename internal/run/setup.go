package run

import (
	"log/slog"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/events"
	"github.com/docsmith/renderci/internal/history"
	"github.com/docsmith/renderci/internal/logfields"
)

// OpenHistory opens the configured history store. History is optional
// infrastructure: a disabled config returns nil, and an open failure is
// logged and returns nil rather than failing the run.
func OpenHistory(cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("history store unavailable, continuing without it",
			logfields.Path(cfg.History.Path), logfields.Error(err))
		return nil
	}
	return store
}

// ConnectEmitter connects the configured event publisher. An empty URL means
// events are off; a connect failure downgrades to the no-op emitter with a
// warning. Runs never fail because eventing is down.
func ConnectEmitter(cfg *config.Config) events.Emitter {
	if cfg.Events.URL == "" {
		return events.Noop{}
	}
	emitter, err := events.Connect(cfg.Events)
	if err != nil {
		slog.Warn("event publisher unavailable, continuing without it",
			logfields.URL(cfg.Events.URL), logfields.Error(err))
		return events.Noop{}
	}
	return emitter
}
