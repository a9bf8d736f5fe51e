package chunker

import "strings"

// spanKind distinguishes fenced code regions from everything else.
type spanKind int

const (
	spanText spanKind = iota
	spanCode
)

// span is a half-open byte range [start, end) into the source document.
// Identity is positional: two byte-identical code blocks are distinct spans.
type span struct {
	kind  spanKind
	start int
	end   int
}

// piece is a contiguous slice of the document produced by one split pass.
// Pieces from one pass cover their parent range exactly, so concatenating
// them reproduces the parent text byte-for-byte.
type piece struct {
	start int
	end   int
}

// segment splits content into alternating text and fenced-code spans.
// A fence opens on a line whose first non-space characters are three or more
// backticks and closes on a line of at least as many backticks followed only
// by whitespace, so look-alike fences inside a longer-marked block do not
// terminate it. An unterminated fence runs to the end of the document.
func segment(content string) []span {
	var spans []span
	textStart := 0

	pos := 0
	for pos < len(content) {
		lineEnd := strings.IndexByte(content[pos:], '\n')
		var next int
		if lineEnd < 0 {
			lineEnd = len(content)
			next = lineEnd
		} else {
			lineEnd += pos
			next = lineEnd + 1
		}
		line := content[pos:lineEnd]

		marker := fenceMarker(line)
		if marker == 0 {
			pos = next
			continue
		}

		// Opening fence found. Close the pending text span.
		if pos > textStart {
			spans = append(spans, span{kind: spanText, start: textStart, end: pos})
		}
		codeStart := pos
		pos = next

		// The closer's trailing newline is left to the following text
		// span so separators around the block stay visible to later
		// split passes.
		closed := false
		for pos < len(content) {
			le := strings.IndexByte(content[pos:], '\n')
			var n int
			if le < 0 {
				le = len(content)
				n = le
			} else {
				le += pos
				n = le + 1
			}
			if closesFence(content[pos:le], marker) {
				pos = le
				closed = true
				break
			}
			pos = n
		}
		if !closed {
			pos = len(content)
		}
		spans = append(spans, span{kind: spanCode, start: codeStart, end: pos})
		textStart = pos
	}

	if textStart < len(content) {
		spans = append(spans, span{kind: spanText, start: textStart, end: len(content)})
	}
	return spans
}

// fenceMarker returns the backtick run length that opens a fence on this
// line, or 0 if the line does not open one.
func fenceMarker(line string) int {
	trimmed := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < 3 {
		return 0
	}
	// An info string may not contain backticks.
	if strings.Contains(trimmed[n:], "`") {
		return 0
	}
	return n
}

// closesFence reports whether line terminates a fence opened with marker
// backticks: at least marker backticks and nothing but whitespace after.
func closesFence(line string, marker int) bool {
	trimmed := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < marker {
		return false
	}
	return strings.TrimSpace(trimmed[n:]) == ""
}

// overlapsCode reports whether any code span intersects [start, end).
func overlapsCode(spans []span, start, end int) bool {
	for _, s := range spans {
		if s.kind != spanCode {
			continue
		}
		if s.start < end && start < s.end {
			return true
		}
	}
	return false
}
