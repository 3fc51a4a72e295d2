package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyJobID       = "job_id"
	KeyWindow      = "window"
	KeyFile        = "file"
	KeyFormat      = "format"
	KeyTool        = "tool"
	KeyToolVersion = "tool_version"
	KeyPattern     = "pattern"
	KeyPath        = "path"
	KeyURL         = "url"
	KeyStage       = "stage"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyOutput      = "output"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func Window(n int) slog.Attr          { return slog.Int(KeyWindow, n) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func ToolVersion(v string) slog.Attr  { return slog.String(KeyToolVersion, v) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
