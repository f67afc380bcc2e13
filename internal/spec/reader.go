package spec

import (
	"strings"

	"github.com/rpmforge/rpmbuilder/internal/macro"
)

// lineReader implements the line-reading contract over an
// in-memory spec file: it strips the trailing newline and leading-# comment
// lines, and macro-expands the line in place when the conditional stack's
// top frame is reading.
type lineReader struct {
	path    string
	lines   []string
	pos     int // index of the next unread line
	lineNum int // 1-based number of the line last returned by next()
}

func newLineReader(path, content string) *lineReader {
	// normalize CRLF, split keeping empty trailing line out
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &lineReader{path: path, lines: lines}
}

const (
	readEOF = iota
	readOK
)

// next returns the next raw line (comments NOT yet stripped, macros NOT yet
// expanded) and readOK, or "", readEOF at end of input.
func (r *lineReader) next() (string, int) {
	if r.pos >= len(r.lines) {
		return "", readEOF
	}
	line := r.lines[r.pos]
	r.pos++
	r.lineNum++
	return line, readOK
}

// stripComment collapses a line to empty if, after stripping leading
// whitespace, it begins with '#'.
func stripComment(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return ""
	}
	return line
}

// expandLine macro-expands line against ctx ("If the
// current read stack's top reading flag is true, the line is macro-expanded
// in place before being returned").
func expandLine(ctx *macro.Context, line string) (string, error) {
	out, err := macro.Expand(ctx, []byte(line))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
