// Package formatter renders notebook cells and their outputs as markdown
// suitable for LLM consumption.
package formatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/nbdistill/internal/notebook"
)

// Options controls which parts of a cell are rendered.
type Options struct {
	IncludeCode     bool
	IncludeOutputs  bool
	MaxOutputLength int // 0 means unlimited
}

var (
	// One pass for both forms so the inline pattern cannot re-match inside
	// an already-normalized block equation.
	latexRe       = regexp.MustCompile(`(?s)\$\$(.*?)\$\$|\$([^$\n]+?)\$`)
	headerSpaceRe = regexp.MustCompile(`(?m)^(#+)[ \t]*(.*)$`)
)

// Cell renders a single notebook cell. Cells that render to nothing (e.g. a
// code cell when code is excluded) yield an empty string.
func Cell(cell notebook.Cell, opts Options) string {
	source := cell.Source.String()

	switch cell.Type {
	case notebook.CellTypeMarkdown:
		return MarkdownCell(source)
	case notebook.CellTypeCode:
		if !opts.IncludeCode {
			return ""
		}
		var b strings.Builder
		b.WriteString(CodeCell(source, cell.ExecutionCount))
		if opts.IncludeOutputs {
			for _, out := range cell.Outputs {
				b.WriteString(Output(out, opts.MaxOutputLength))
			}
		}
		return b.String()
	case notebook.CellTypeRaw:
		return RawCell(source)
	}
	return ""
}

// MarkdownCell normalizes a markdown cell: block and inline LaTeX are
// re-delimited consistently and header lines get a single space after the
// hash run.
func MarkdownCell(source string) string {
	formatted := latexRe.ReplaceAllStringFunc(source, func(m string) string {
		if strings.HasPrefix(m, "$$") {
			return "$$\n" + strings.TrimSpace(m[2:len(m)-2]) + "\n$$"
		}
		return "$" + strings.TrimSpace(m[1:len(m)-1]) + "$"
	})
	formatted = headerSpaceRe.ReplaceAllString(formatted, "$1 $2")
	return strings.TrimSpace(formatted) + "\n\n"
}

// CodeCell wraps code in a python fence, prefixed with the execution count
// when one is recorded.
func CodeCell(source string, executionCount *int) string {
	formatted := "```python\n" + strings.TrimSpace(source) + "\n```\n\n"
	if executionCount != nil {
		formatted = fmt.Sprintf("[%d] %s", *executionCount, formatted)
	}
	return formatted
}

// RawCell wraps raw cell content in a plain fence.
func RawCell(source string) string {
	return "```\n" + strings.TrimSpace(source) + "\n```\n\n"
}

// truncate shortens s to max characters with a truncation marker; max <= 0
// disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "... [truncated]"
}
