// Package incremental skips inputs whose content is unchanged since the last
// successful run with the same format list. Fingerprints hash frontmatter and
// body as separate parts, so edits to either are detected while the split
// itself stays stable.
package incremental

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/inful/mdfp"

	"github.com/docsmith/renderci/internal/config"
	"github.com/docsmith/renderci/internal/discover"
	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/history"
	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/markdown"
)

// Fingerprint computes the content fingerprint for one markdown document.
func Fingerprint(data []byte) string {
	frontmatter, body := markdown.SplitFrontmatter(data)
	return mdfp.CalculateFingerprintFromParts(string(frontmatter), string(body))
}

// FingerprintFile reads and fingerprints one input file.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Fingerprint(data), nil
}

// Filter drops inputs recorded as unchanged by the history store.
type Filter struct {
	store *history.Store
}

// NewFilter builds a filter backed by the given store. A nil store yields a
// pass-through filter that still computes fingerprints.
func NewFilter(store *history.Store) *Filter {
	return &Filter{store: store}
}

// Apply fingerprints every input and returns the files that still need
// rendering plus one FileRecord per distinct input path (for recording with
// this run). Without a store, or without a previous successful run for the
// same format list, all files are kept.
func (f *Filter) Apply(ctx context.Context, files []discover.InputFile, formats []config.Format) ([]discover.InputFile, []history.FileRecord, error) {
	fingerprints := make(map[string]string, len(files))
	for _, file := range files {
		if _, done := fingerprints[file.RelPath]; done {
			continue
		}
		fp, err := FingerprintFile(file.Path)
		if err != nil {
			return nil, nil, rcerrors.Wrap(err, rcerrors.CategoryFileSystem, rcerrors.SeverityFatal,
				"cannot fingerprint "+file.RelPath)
		}
		fingerprints[file.RelPath] = fp
	}
	records := recordsFrom(fingerprints)

	if f == nil || f.store == nil {
		return files, records, nil
	}

	previous, err := f.store.LastSuccessfulFingerprints(ctx, formatNames(formats))
	if err != nil {
		slog.Warn("fingerprint lookup failed, rendering everything", logfields.Error(err))
		return files, records, nil
	}
	if len(previous) == 0 {
		return files, records, nil
	}

	var kept []discover.InputFile
	skipped := 0
	for _, file := range files {
		fp := fingerprints[file.RelPath]
		if fp != "" && previous[file.RelPath] == fp {
			skipped++
			slog.Debug("skipping unchanged file", logfields.File(file.RelPath))
			continue
		}
		kept = append(kept, file)
	}
	if skipped > 0 {
		slog.Info("incremental mode skipped unchanged files", logfields.Count(skipped))
	}
	return kept, records, nil
}

func recordsFrom(fingerprints map[string]string) []history.FileRecord {
	paths := make([]string, 0, len(fingerprints))
	for path := range fingerprints {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	records := make([]history.FileRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, history.FileRecord{Path: path, Fingerprint: fingerprints[path]})
	}
	return records
}

func formatNames(formats []config.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
