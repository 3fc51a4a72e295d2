// Package verify checks rendered outputs for local links that do not
// resolve. Findings are advisory: they are logged as warnings and never fail
// a run.
package verify

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docsmith/renderci/internal/logfields"
	"github.com/docsmith/renderci/internal/markdown"
)

// Problem is one unresolvable local link in a rendered output.
type Problem struct {
	File   string // output file containing the link
	Link   string // raw link target as written
	Reason string
}

const (
	ReasonMissingTarget = "missing target"
	ReasonEscapesOutput = "escapes output directory"
	ReasonUnreadable    = "unreadable output"
)

// Checker resolves local links against the output tree.
type Checker struct {
	outputDir string
}

// New builds a checker rooted at the run's output directory.
func New(outputDir string) *Checker {
	return &Checker{outputDir: outputDir}
}

// Check examines every .html and .md output and returns the local links that
// do not resolve to a file under the output tree.
func (c *Checker) Check(outputs []string) []Problem {
	var problems []Problem
	for _, out := range outputs {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".html":
			problems = append(problems, c.checkHTML(out)...)
		case ".md":
			problems = append(problems, c.checkMarkdown(out)...)
		}
	}
	return problems
}

// LogProblems emits one warning per finding.
func LogProblems(problems []Problem) {
	for _, p := range problems {
		slog.Warn("broken local link",
			logfields.File(p.File),
			slog.String("link", p.Link),
			slog.String("reason", p.Reason))
	}
}

func (c *Checker) checkHTML(path string) []Problem {
	f, err := os.Open(path)
	if err != nil {
		return []Problem{{File: path, Reason: ReasonUnreadable}}
	}
	defer f.Close()

	links, err := ExtractHTMLLinks(f)
	if err != nil {
		return []Problem{{File: path, Reason: ReasonUnreadable}}
	}

	var problems []Problem
	for _, link := range links {
		problems = c.appendProblem(problems, path, link.URL)
	}
	return problems
}

func (c *Checker) checkMarkdown(path string) []Problem {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Problem{{File: path, Reason: ReasonUnreadable}}
	}

	var problems []Problem
	for _, link := range markdown.ExtractLinks(data) {
		problems = c.appendProblem(problems, path, link.Destination)
	}
	return problems
}

func (c *Checker) appendProblem(problems []Problem, file, raw string) []Problem {
	target, ok := localTarget(raw)
	if !ok {
		return problems
	}

	var resolved string
	if strings.HasPrefix(target, "/") {
		// Site-rooted paths resolve against the output root.
		resolved = filepath.Join(c.outputDir, filepath.FromSlash(target))
	} else {
		resolved = filepath.Join(filepath.Dir(file), filepath.FromSlash(target))
	}

	rel, err := filepath.Rel(c.outputDir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return append(problems, Problem{File: file, Link: raw, Reason: ReasonEscapesOutput})
	}
	if _, err := os.Stat(resolved); err != nil {
		return append(problems, Problem{File: file, Link: raw, Reason: ReasonMissingTarget})
	}
	return problems
}

// localTarget strips fragments and queries and reports whether the link is a
// local path worth checking. External URLs, pure fragments and special
// protocols are skipped.
func localTarget(raw string) (string, bool) {
	trimmed := raw
	if i := strings.IndexByte(trimmed, '#'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "", false
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return trimmed, true
}
