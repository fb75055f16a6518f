// Package lines holds the output model of the watched command: the line
// buffer built from captured stdout, the cursor/selection state over its
// body, and the display-only field formatter.
package lines

import "strings"

// Buffer is the last successful watched-command output, split into
// header and body lines. Lines keep their ANSI escape sequences verbatim
// and are never mutated after capture. A new capture replaces the whole
// buffer; no partial buffer is ever observable.
type Buffer struct {
	header []string
	body   []string
}

// NewBuffer splits captured stdout into a buffer. A single trailing
// newline is stripped before splitting; the first headerLines lines
// become the header and the remainder the body. If the capture has fewer
// lines than headerLines, the body is empty and the header holds what
// was captured.
func NewBuffer(raw string, headerLines int) *Buffer {
	if headerLines < 0 {
		headerLines = 0
	}
	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return &Buffer{}
	}
	all := strings.Split(raw, "\n")
	if len(all) <= headerLines {
		return &Buffer{header: all}
	}
	return &Buffer{header: all[:headerLines], body: all[headerLines:]}
}

// Header returns the header lines.
func (b *Buffer) Header() []string { return b.header }

// Body returns the body lines.
func (b *Buffer) Body() []string { return b.body }

// BodyLen returns the number of body lines.
func (b *Buffer) BodyLen() int { return len(b.body) }

// BodyLine returns the body line at index i.
func (b *Buffer) BodyLine(i int) (string, bool) {
	if i < 0 || i >= len(b.body) {
		return "", false
	}
	return b.body[i], true
}
