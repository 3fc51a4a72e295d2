package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if rce, ok := AsRenderCIError(err); ok {
		return a.exitCodeFromCategory(rce)
	}

	return 1
}

// exitCodeFromCategory maps RenderCIError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromCategory(err *RenderCIError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryPlatform:
		return 4 // Unsupported platform
	case CategoryNetwork, CategoryInstall, CategorySource:
		return 8 // External system error
	case CategoryDiscovery, CategoryRender, CategoryFileSystem:
		return 11 // Processing error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if rce, ok := AsRenderCIError(err); ok {
		return a.formatStructured(rce)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatStructured formats a RenderCIError for display.
func (a *CLIErrorAdapter) formatStructured(err *RenderCIError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if rce, ok := AsRenderCIError(err); ok {
		return rce.Category == CategoryInternal || rce.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if rce, ok := AsRenderCIError(err); ok {
		level := a.slogLevelFromSeverity(rce.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(rce.Category)),
		}

		a.logger.LogAttrs(context.Background(), level, rce.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts RenderCIError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
