// Package debug has helpers producing human readable views of internal
// structures for troubleshooting.
package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TreeWriter accumulates indented text view of a tree.
type TreeWriter struct {
	sb     strings.Builder
	indent string
	limit  int
}

// Option configures TreeWriter.
type Option func(*TreeWriter)

// WithIndent sets string used for each level of indentation, two spaces by
// default.
func WithIndent(indent string) Option {
	return func(tw *TreeWriter) {
		tw.indent = indent
	}
}

// WithValueLimit truncates field values longer than limit runes, stylesheets
// often carry huge data URLs. Zero means no limit.
func WithValueLimit(limit int) Option {
	return func(tw *TreeWriter) {
		tw.limit = max(limit, 0)
	}
}

func NewTreeWriter(opts ...Option) *TreeWriter {
	tw := &TreeWriter{indent: "  "}
	for _, opt := range opts {
		opt(tw)
	}
	return tw
}

func (tw *TreeWriter) String() string {
	return tw.sb.String()
}

// WriteTo implements io.WriterTo.
func (tw *TreeWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, tw.sb.String())
	return int64(n), err
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.writeIndent(depth)
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

// Field writes "label: value" line, value is quoted so whitespace and control
// characters are visible.
func (tw *TreeWriter) Field(depth int, label, value string) {
	tw.writeIndent(depth)
	tw.sb.WriteString(label)
	tw.sb.WriteString(": ")
	tw.sb.WriteString(tw.encode(value))
	tw.sb.WriteByte('\n')
}

func (tw *TreeWriter) writeIndent(depth int) {
	for range depth {
		tw.sb.WriteString(tw.indent)
	}
}

func (tw *TreeWriter) encode(value string) string {
	if tw.limit == 0 || utf8.RuneCountInString(value) <= tw.limit {
		return strconv.Quote(value)
	}
	runes := []rune(value)
	return strconv.Quote(string(runes[:tw.limit])) + fmt.Sprintf("... (%d more)", len(runes)-tw.limit)
}
