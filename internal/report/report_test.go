package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWriteOutputsToGithubOutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "github_output")
	t.Setenv("GITHUB_OUTPUT", outFile)

	r := New(os.Stdout)
	err := r.WriteOutputs(Outputs{
		FilesProcessed: 3,
		OutputFiles:    []string{"rendered/a.html", "rendered/docs/b.html", "rendered/a.pdf"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t,
		"files-processed=3\n"+
			`output-files=["rendered/a.html","rendered/docs/b.html","rendered/a.pdf"]`+"\n",
		string(data))
}

func TestWriteOutputsAppendsToExistingFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, os.WriteFile(outFile, []byte("other-step=done\n"), 0o644))
	t.Setenv("GITHUB_OUTPUT", outFile)

	r := New(os.Stdout)
	require.NoError(t, r.WriteOutputs(Outputs{FilesProcessed: 1, OutputFiles: []string{"rendered/a.html"}}))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t,
		"other-step=done\nfiles-processed=1\noutput-files=[\"rendered/a.html\"]\n",
		string(data))
}

func TestWriteOutputsStdoutFallback(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")

	var buf bytes.Buffer
	r := New(&buf)
	require.NoError(t, r.WriteOutputs(Outputs{FilesProcessed: 0}))
	require.Equal(t, "files-processed=0\noutput-files=[]\n", buf.String())
}

func TestMarshalOutputFiles(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"nil", nil, "[]"},
		{"empty", []string{}, "[]"},
		{"single", []string{"out/a.html"}, `["out/a.html"]`},
		{"quotes escaped", []string{`out/we "said".html`}, `["out/we \"said\".html"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalOutputFiles(tt.paths)
			if err != nil {
				t.Fatalf("MarshalOutputFiles: %v", err)
			}
			if got != tt.want {
				t.Errorf("MarshalOutputFiles(%v) = %s, want %s", tt.paths, got, tt.want)
			}
		})
	}
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	require.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}
