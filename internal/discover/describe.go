package discover

import (
	"log/slog"
	"os"

	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/markdown"
)

// DescribedFile pairs a discovered input with the document title taken from
// its first level-1 heading.
type DescribedFile struct {
	InputFile
	Title string
}

// Describe reads each input and extracts its title. Unreadable or untitled
// files keep an empty title; describing is informational and never fails a
// run.
func Describe(files []InputFile) []DescribedFile {
	described := make([]DescribedFile, 0, len(files))
	for _, f := range files {
		described = append(described, DescribedFile{InputFile: f, Title: titleOf(f.Path)})
	}
	return described
}

func titleOf(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("cannot read file for title", logfields.Path(path), logfields.Error(err))
		return ""
	}
	_, body := markdown.SplitFrontmatter(data)
	return markdown.ExtractTitle(body)
}
