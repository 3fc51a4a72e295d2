package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/docsmith/renderci/internal/config"
)

// writeFakeTool installs a shell script standing in for the external binary.
func writeFakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "docsmith")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestToolRendererSuccess(t *testing.T) {
	tool := writeFakeTool(t, `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
: > "$out"
exit 0
`)

	outPath := filepath.Join(t.TempDir(), "a.html")
	r := NewToolRenderer(tool)
	err := r.Render(context.Background(), "a.md", config.FormatHTML, outPath, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output file not created: %v", err)
	}
}

func TestToolRendererFailureIncludesToolOutput(t *testing.T) {
	tool := writeFakeTool(t, `
echo "layout template missing" >&2
exit 3
`)

	r := NewToolRenderer(tool)
	err := r.Render(context.Background(), "a.md", config.FormatPDF, "out/a.pdf", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "layout template missing") {
		t.Fatalf("error does not carry tool stderr: %v", err)
	}
	if !strings.Contains(err.Error(), "exit status 3") {
		t.Fatalf("error does not carry exit status: %v", err)
	}
}

func TestToolRendererContextCancel(t *testing.T) {
	tool := writeFakeTool(t, "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewToolRenderer(tool)
	if err := r.Render(ctx, "a.md", config.FormatHTML, "out/a.html", Options{}); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestStubRendererRecordsCalls(t *testing.T) {
	stub := &StubRenderer{}

	if err := stub.Render(context.Background(), "a.md", config.FormatHTML, "out/a.html", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := stub.Render(context.Background(), "a.md", config.FormatPDF, "out/a.pdf", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := stub.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Args[0] != "render" {
		t.Fatalf("recorded args = %q", calls[0].Args)
	}
	if got := stub.CallsFor("a.md"); len(got) != 2 || got[0] != config.FormatHTML || got[1] != config.FormatPDF {
		t.Fatalf("CallsFor = %v", got)
	}
}
