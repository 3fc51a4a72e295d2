package config

import (
	"fmt"
	"strings"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// Format identifies one target output representation.
type Format string

const (
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "markdown"
)

// Extension returns the file extension for the format, without the dot.
// Every format maps to its own name except "markdown", which maps to "md".
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// SupportsLayout reports whether the layout flag applies to this format.
// Layouts control visual presentation and are meaningless for markdown.
func (f Format) SupportsLayout() bool {
	return f == FormatHTML || f == FormatPDF
}

// ParseFormats splits a comma-separated format list, canonicalizing case and
// whitespace and rejecting unknown tokens. Order is preserved.
func ParseFormats(raw string) ([]Format, error) {
	var formats []Format
	for _, token := range strings.Split(raw, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		switch Format(token) {
		case FormatHTML, FormatPDF, FormatMarkdown:
			formats = append(formats, Format(token))
		default:
			return nil, rcerrors.ValidationFailed(
				fmt.Sprintf("unsupported format %q (supported: html, pdf, markdown)", token))
		}
	}
	if len(formats) == 0 {
		return nil, rcerrors.ValidationFailed("at least one output format is required")
	}
	return formats, nil
}

// FormatList returns the configured formats as a validated, ordered list.
func (c *Config) FormatList() ([]Format, error) {
	return ParseFormats(c.Formats)
}
