package report

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/logfields"
)

// Run statuses shared by the summary log line, the history store, and the
// event stream.
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Summary captures one run for the closing log line and downstream sinks.
type Summary struct {
	RunID          string
	Status         string
	StartedAt      time.Time
	Duration       time.Duration
	Formats        []config.Format
	FilesProcessed int
	OutputFiles    []string
	Err            error
}

// Log emits the end-of-run summary line.
func (s Summary) Log() {
	attrs := []slog.Attr{
		logfields.RunID(s.RunID),
		slog.String("status", s.Status),
		slog.String("formats", formatNames(s.Formats)),
		logfields.Count(s.FilesProcessed),
		slog.Int("output_files", len(s.OutputFiles)),
		logfields.DurationMS(float64(s.Duration.Milliseconds())),
	}
	if s.Err != nil {
		attrs = append(attrs, logfields.Error(s.Err))
	}
	level := slog.LevelInfo
	if s.Status != StatusSuccess {
		level = slog.LevelError
	}
	slog.LogAttrs(context.Background(), level, "run summary", attrs...)
}

func formatNames(formats []config.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
