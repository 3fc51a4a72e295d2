// Package events publishes run lifecycle events to NATS JetStream.
// Publishing is best-effort: connection and publish failures are logged as
// warnings and never fail a run.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/report"
)

// Event types carried in RunEvent.Type.
const (
	TypeRunStarted   = "run.started"
	TypeRunCompleted = "run.completed"
	TypeRunFailed    = "run.failed"
)

// RunEvent is the JSON payload published for run lifecycle transitions.
type RunEvent struct {
	Type           string    `json:"type"`
	RunID          string    `json:"run_id"`
	Timestamp      time.Time `json:"timestamp"`
	Workspace      string    `json:"workspace,omitempty"`
	Formats        []string  `json:"formats,omitempty"`
	FilesProcessed int       `json:"files_processed,omitempty"`
	OutputFiles    int       `json:"output_files,omitempty"`
	DurationMS     int64     `json:"duration_ms,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Started builds the run-started event.
func Started(runID, workspace string, formats []config.Format) RunEvent {
	return RunEvent{
		Type:      TypeRunStarted,
		RunID:     runID,
		Workspace: workspace,
		Formats:   formatNames(formats),
	}
}

// Finished builds the terminal event for a run from its summary.
func Finished(sum report.Summary) RunEvent {
	event := RunEvent{
		Type:           TypeRunCompleted,
		RunID:          sum.RunID,
		Formats:        formatNames(sum.Formats),
		FilesProcessed: sum.FilesProcessed,
		OutputFiles:    len(sum.OutputFiles),
		DurationMS:     sum.Duration.Milliseconds(),
	}
	if sum.Status != report.StatusSuccess {
		event.Type = TypeRunFailed
		if sum.Err != nil {
			event.Error = sum.Err.Error()
		}
	}
	return event
}

// Emitter publishes run events.
type Emitter interface {
	Emit(ctx context.Context, event RunEvent)
	Close()
}

// Noop discards events.
type Noop struct{}

func (Noop) Emit(context.Context, RunEvent) {}
func (Noop) Close()                         {}

// NATSEmitter publishes events to a JetStream subject.
type NATSEmitter struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// Connect dials NATS and makes sure the configured stream exists. Callers
// downgrade to Noop with a warning when this fails.
func Connect(cfg config.EventsConfig) (*NATSEmitter, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("renderci"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	emitter := &NATSEmitter{conn: conn, js: js, subject: cfg.Subject}
	if cfg.Stream != "" {
		if err := emitter.ensureStream(cfg.Stream); err != nil {
			conn.Close()
			return nil, err
		}
	}

	slog.Debug("event publishing enabled",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))
	return emitter, nil
}

func (e *NATSEmitter) ensureStream(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := e.js.Stream(ctx, name); err == nil {
		return nil
	}
	_, err := e.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: []string{e.subject},
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

// Emit publishes one event, logging instead of failing on errors.
func (e *NATSEmitter) Emit(ctx context.Context, event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("event marshal failed", logfields.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := e.js.Publish(ctx, e.subject, data); err != nil {
		slog.Warn("event publish failed",
			slog.String("type", event.Type),
			logfields.RunID(event.RunID),
			logfields.Error(err))
		return
	}
	slog.Debug("event published", slog.String("type", event.Type), logfields.RunID(event.RunID))
}

// Close drains the connection.
func (e *NATSEmitter) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

func formatNames(formats []config.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
