// Package discover locates Markdown input files under a workspace root using
// glob patterns and a workspace-relative ignore list.
package discover

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"

	rcerrors "github.com/docsmith/renderci/internal/errors"
	"github.com/docsmith/renderci/internal/logfields"
)

// InputFile represents a discovered input file.
type InputFile struct {
	Path    string // absolute path
	RelPath string // workspace-relative, slash-separated
	Pattern string // the glob pattern that matched it
}

// Discovery finds input files for a run.
type Discovery struct {
	workspace string
	patterns  []string
	ignore    map[string]struct{}
	skipDirs  []string
}

// New creates a Discovery over the given workspace. Ignore entries are
// workspace-relative paths.
func New(workspace string, patterns, ignore []string) *Discovery {
	ignoreSet := make(map[string]struct{}, len(ignore))
	for _, entry := range ignore {
		ignoreSet[normalizeRel(entry)] = struct{}{}
	}
	return &Discovery{
		workspace: workspace,
		patterns:  patterns,
		ignore:    ignoreSet,
	}
}

// SkipDir excludes a workspace-relative subtree from matching. A run's own
// output tree must never feed back into discovery (markdown outputs would
// otherwise match markdown input patterns).
func (d *Discovery) SkipDir(rel string) *Discovery {
	rel = normalizeRel(rel)
	if rel != "" && rel != "." {
		d.skipDirs = append(d.skipDirs, rel)
	}
	return d
}

func (d *Discovery) underSkipped(rel string) bool {
	for _, dir := range d.skipDirs {
		if rel == dir || strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// Discover returns the ordered union of matches across patterns. Matches are
// unique within one pattern (the glob walk visits each file once) but a file
// matched by several patterns appears once per pattern; directories and
// ignored paths are excluded. Zero matches is not an error.
func (d *Discovery) Discover() ([]InputFile, error) {
	var files []InputFile
	fsys := os.DirFS(d.workspace)

	for _, pattern := range d.patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, rcerrors.New(rcerrors.CategoryDiscovery, rcerrors.SeverityFatal,
				"invalid glob pattern: "+pattern)
		}

		count := 0
		err := doublestar.GlobWalk(fsys, pattern, func(path string, entry fs.DirEntry) error {
			if entry.IsDir() {
				return nil
			}
			rel := normalizeRel(path)
			if d.underSkipped(rel) {
				return nil
			}
			if _, skip := d.ignore[rel]; skip {
				slog.Debug("skipping ignored file", logfields.Path(rel), logfields.Pattern(pattern))
				return nil
			}
			files = append(files, InputFile{
				Path:    filepath.Join(d.workspace, filepath.FromSlash(path)),
				RelPath: rel,
				Pattern: pattern,
			})
			count++
			return nil
		})
		if err != nil {
			return nil, rcerrors.Wrap(err, rcerrors.CategoryDiscovery, rcerrors.SeverityFatal, "glob walk failed for pattern "+pattern)
		}
		slog.Debug("pattern matched", logfields.Pattern(pattern), logfields.Count(count))
	}

	slog.Info("input files discovered", logfields.Count(len(files)))
	return files, nil
}

// normalizeRel canonicalizes a workspace-relative path for comparison:
// forward slashes and Unicode NFC, so ignore entries written on one platform
// match files checked out on another (macOS stores names in NFD).
func normalizeRel(p string) string {
	return norm.NFC.String(filepath.ToSlash(p))
}
