// Package workspace manages checkout directories for remote sources,
// supporting both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g. renderci-20260301-122336)
// suitable for one-shot CI runs, removed completely on Cleanup. Persistent
// mode uses a fixed directory that survives across runs, so watch mode and
// incremental runs can reuse a checkout.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/docsmith/renderci/internal/logfields"
)

// Manager owns one checkout directory.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
}

// NewManager creates a manager producing ephemeral timestamped directories
// under baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a manager bound to baseDir/subdir. The
// directory is kept on Cleanup.
func NewPersistentManager(baseDir, subdir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdir == "" {
		subdir = "source"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdir),
		persistent: true,
	}
}

// Create makes the workspace directory available.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("create persistent workspace: %w", err)
		}
		slog.Debug("using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	dir := filepath.Join(m.baseDir, fmt.Sprintf("renderci-%s", time.Now().Format("20060102-150405")))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	m.dir = dir
	slog.Debug("created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Cleanup removes ephemeral workspaces. Persistent workspaces are kept so
// the next run can reuse the checkout.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("cleanup workspace: %w", err)
	}
	slog.Debug("removed workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// Subdir creates (if needed) and returns a directory inside the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("create workspace subdirectory: %w", err)
	}
	return sub, nil
}
