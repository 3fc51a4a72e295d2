package markdown

import "bytes"

var fmDelimiter = []byte("---")

// SplitFrontmatter splits a document into its raw YAML frontmatter (without
// the --- delimiters) and body. Documents without a leading frontmatter block
// return empty frontmatter and the input unchanged, as do documents whose
// block is never closed. The raw parts feed fingerprinting, so no YAML
// decoding happens here.
func SplitFrontmatter(data []byte) (frontmatter, body []byte) {
	rest, ok := cutDelimiterLine(data)
	if !ok {
		return nil, data
	}
	start := len(data) - len(rest)

	// The closing delimiter must be a whole line equal to --- (CRLF tolerated).
	for pos := start; pos <= len(data); {
		lineEnd := bytes.IndexByte(data[pos:], '\n')
		var line []byte
		next := len(data) + 1
		if lineEnd < 0 {
			line = data[pos:]
		} else {
			line = data[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		}
		if bytes.Equal(bytes.TrimSuffix(line, []byte("\r")), fmDelimiter) {
			frontmatter = trimTrailingNewline(data[start:pos])
			if next > len(data) {
				return frontmatter, nil
			}
			return frontmatter, data[next:]
		}
		pos = next
	}
	return nil, data
}

// cutDelimiterLine strips a leading "---" line, reporting whether the input
// started with one.
func cutDelimiterLine(data []byte) ([]byte, bool) {
	if !bytes.HasPrefix(data, fmDelimiter) {
		return data, false
	}
	rest := data[len(fmDelimiter):]
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		return rest[2:], true
	case bytes.HasPrefix(rest, []byte("\n")):
		return rest[1:], true
	default:
		return data, false
	}
}

func trimTrailingNewline(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}
