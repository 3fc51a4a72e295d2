// Package report writes run results to the CI surface. Outputs follow the
// GitHub Actions contract: key=value lines appended to the file named by
// $GITHUB_OUTPUT, falling back to stdout outside a runner.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
)

const (
	// OutputFilesProcessed is the CI output key for the processed-file count.
	OutputFilesProcessed = "files-processed"
	// OutputFiles is the CI output key for the JSON array of produced paths.
	OutputFiles = "output-files"
)

// NewRunID returns a fresh identifier for one render run.
func NewRunID() string {
	return uuid.NewString()
}

// Outputs is what a run reports back to CI.
type Outputs struct {
	FilesProcessed int
	OutputFiles    []string
}

// Reporter writes CI outputs. The output file path is captured at
// construction so a run sees a consistent destination.
type Reporter struct {
	outputPath string
	stdout     io.Writer
}

// New builds a Reporter targeting $GITHUB_OUTPUT when set, otherwise the
// given writer (normally os.Stdout).
func New(stdout io.Writer) *Reporter {
	return &Reporter{
		outputPath: os.Getenv("GITHUB_OUTPUT"),
		stdout:     stdout,
	}
}

// WriteOutputs emits files-processed and output-files. The count is written
// as a decimal string and the paths as a single-line JSON array ("[]" when
// nothing was produced).
func (r *Reporter) WriteOutputs(out Outputs) error {
	files, err := MarshalOutputFiles(out.OutputFiles)
	if err != nil {
		return err
	}
	lines := fmt.Sprintf("%s=%s\n%s=%s\n",
		OutputFilesProcessed, strconv.Itoa(out.FilesProcessed),
		OutputFiles, files)

	if r.outputPath == "" {
		_, err := io.WriteString(r.stdout, lines)
		return err
	}

	// The runner contract is append: other steps share the file.
	f, err := os.OpenFile(r.outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.outputPath, err)
	}
	if _, err := io.WriteString(f, lines); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", r.outputPath, err)
	}
	return f.Close()
}

// MarshalOutputFiles renders the output path list as a JSON array, never null.
func MarshalOutputFiles(paths []string) (string, error) {
	if len(paths) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(paths)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
