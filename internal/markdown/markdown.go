// Package markdown provides lightweight analysis of Markdown sources: title
// extraction for run reports, link extraction for output verification and
// frontmatter splitting for fingerprinting. It never renders Markdown; that
// is the external tool's job.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseBody parses a Markdown body (frontmatter already removed) into a
// Goldmark AST.
func ParseBody(body []byte) gmast.Node {
	md := goldmark.New()
	return md.Parser().Parse(text.NewReader(body))
}

// ExtractTitle returns the text of the first level-1 heading, or "" when the
// document has none.
func ExtractTitle(body []byte) string {
	root := ParseBody(body)

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = inlineText(h, body)
		return gmast.WalkStop, nil
	})
	return strings.TrimSpace(title)
}

// inlineText collects the raw text segments under a node, ignoring markup.
func inlineText(node gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(node, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := n.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
