package config

import "strings"

// splitLines turns a newline-separated input into trimmed non-empty entries,
// preserving order.
func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// PatternList returns the glob patterns in declaration order.
func (c *Config) PatternList() []string {
	return splitLines(c.Patterns)
}

// IgnoreList returns the workspace-relative ignore paths in declaration order.
func (c *Config) IgnoreList() []string {
	return splitLines(c.Ignore)
}
