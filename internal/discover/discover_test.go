package discover

import (
	"os"
	"path/filepath"
	"testing"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("# "+rel+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(files []InputFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestDiscoverBasicGlob(t *testing.T) {
	root := writeTree(t, "a.md", "sub/b.md", "sub/deep/c.md", "notes.txt")

	files, err := New(root, []string{"**/*.md"}, nil).Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := relPaths(files)
	want := []string{"a.md", "sub/b.md", "sub/deep/c.md"}
	if len(got) != len(want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matches = %v, want %v", got, want)
		}
	}
}

func TestDiscoverIgnoreList(t *testing.T) {
	root := writeTree(t, "a.md", "sub/b.md")

	files, err := New(root, []string{"**/*.md"}, []string{"sub/b.md"}).Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := relPaths(files)
	if len(got) != 1 || got[0] != "a.md" {
		t.Fatalf("matches = %v, want [a.md]", got)
	}
}

func TestDiscoverExcludesDirectories(t *testing.T) {
	root := writeTree(t, "weird.md/inner.md", "top.md")

	files, err := New(root, []string{"*.md"}, nil).Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := relPaths(files)
	if len(got) != 1 || got[0] != "top.md" {
		t.Fatalf("matches = %v, want [top.md] (weird.md is a directory)", got)
	}
}

func TestDiscoverUnionIsPerPattern(t *testing.T) {
	root := writeTree(t, "docs/a.md", "docs/b.md")

	// a.md matches both patterns: the union keeps one entry per pattern.
	files, err := New(root, []string{"docs/*.md", "docs/a.md"}, nil).Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := relPaths(files)
	want := []string{"docs/a.md", "docs/b.md", "docs/a.md"}
	if len(got) != len(want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matches = %v, want %v", got, want)
		}
	}
	if files[2].Pattern != "docs/a.md" {
		t.Fatalf("third match pattern = %q", files[2].Pattern)
	}
}

func TestDiscoverSkipsSubtree(t *testing.T) {
	root := writeTree(t, "docs/a.md", "out/a.md", "out/deep/b.md", "outside.md")

	files, err := New(root, []string{"**/*.md"}, nil).SkipDir("out").Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := relPaths(files)
	want := []string{"docs/a.md", "outside.md"}
	if len(got) != len(want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matches = %v, want %v", got, want)
		}
	}
}

func TestDiscoverNoMatches(t *testing.T) {
	root := writeTree(t, "readme.txt")

	files, err := New(root, []string{"**/*.md"}, nil).Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no matches, got %v", relPaths(files))
	}
}

func TestDiscoverInvalidPattern(t *testing.T) {
	root := writeTree(t, "a.md")

	_, err := New(root, []string{"[unclosed"}, nil).Discover()
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !rcerrors.IsCategory(err, rcerrors.CategoryDiscovery) {
		t.Fatalf("error category = %v, want discovery", rcerrors.GetCategory(err))
	}
}

func TestDiscoverAbsolutePathsPointAtFiles(t *testing.T) {
	root := writeTree(t, "sub/doc.md")

	files, err := New(root, []string{"sub/*.md"}, nil).Discover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("matches = %v", relPaths(files))
	}
	if _, err := os.Stat(files[0].Path); err != nil {
		t.Fatalf("absolute path %q not statable: %v", files[0].Path, err)
	}
}

func TestNormalizeRelUnicode(t *testing.T) {
	// "café.md" in NFD (decomposed e + combining acute) must equal its NFC form.
	nfd := "sub/café.md"
	nfc := "sub/café.md"
	if normalizeRel(nfd) != normalizeRel(nfc) {
		t.Fatal("NFD and NFC forms of the same name should normalize equal")
	}
}
