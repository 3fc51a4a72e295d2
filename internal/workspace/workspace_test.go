package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEphemeralCreateAndCleanup(t *testing.T) {
	m := NewManager(t.TempDir())

	if m.Path() != "" {
		t.Fatalf("path must be empty before Create, got %q", m.Path())
	}
	if err := m.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dir := m.Path()
	if !strings.HasPrefix(filepath.Base(dir), "renderci-") {
		t.Errorf("ephemeral workspace name = %q, want renderci- prefix", filepath.Base(dir))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("workspace directory missing: %v", err)
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after cleanup")
	}
	if m.Path() != "" {
		t.Errorf("path must reset after cleanup")
	}
}

func TestPersistentSurvivesCleanup(t *testing.T) {
	base := t.TempDir()
	m := NewPersistentManager(base, "source")

	if err := m.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Path() != filepath.Join(base, "source") {
		t.Fatalf("persistent path = %q", m.Path())
	}

	marker := filepath.Join(m.Path(), "marker")
	if err := os.WriteFile(marker, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("persistent workspace was removed: %v", err)
	}
}

func TestSubdir(t *testing.T) {
	m := NewManager(t.TempDir())

	if _, err := m.Subdir("checkout"); err == nil {
		t.Fatal("Subdir before Create must fail")
	}

	if err := m.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = m.Cleanup() })

	sub, err := m.Subdir("checkout")
	if err != nil {
		t.Fatalf("Subdir: %v", err)
	}
	if info, err := os.Stat(sub); err != nil || !info.IsDir() {
		t.Fatalf("subdir not created: %v", err)
	}
}
