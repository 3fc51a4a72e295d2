package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDescribeExtractsTitles(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) InputFile {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return InputFile{Path: path, RelPath: rel, Pattern: "*.md"}
	}

	titled := write("guide.md", "---\ntitle: meta\n---\n# Getting Started\n\nBody.\n")
	untitled := write("plain.md", "No heading here.\n")

	described := Describe([]InputFile{titled, untitled})
	if len(described) != 2 {
		t.Fatalf("described %d files, want 2", len(described))
	}
	if described[0].Title != "Getting Started" {
		t.Fatalf("title = %q, want %q", described[0].Title, "Getting Started")
	}
	if described[0].RelPath != "guide.md" {
		t.Fatalf("RelPath = %q, want guide.md", described[0].RelPath)
	}
	if described[1].Title != "" {
		t.Fatalf("untitled file got title %q", described[1].Title)
	}
}

func TestDescribeUnreadableFile(t *testing.T) {
	missing := InputFile{Path: filepath.Join(t.TempDir(), "gone.md"), RelPath: "gone.md"}

	described := Describe([]InputFile{missing})
	if len(described) != 1 {
		t.Fatalf("described %d files, want 1", len(described))
	}
	if described[0].Title != "" {
		t.Fatalf("expected empty title for unreadable file, got %q", described[0].Title)
	}
}
