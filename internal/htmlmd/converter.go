// Package htmlmd converts HTML fragments (typically rich cell outputs) into
// markdown, flagging conversions that dropped structure the markdown cannot
// express.
package htmlmd

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ComplexNote is appended to the output when the fragment contained tags
// outside the convertible set.
const ComplexNote = "Note: This cell contained complex HTML content that was simplified for LLM compatibility."

// convertibleTags is the allow-list of tags the converter understands. Any
// other tag marks the conversion as complex (lossy).
var convertibleTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"strong": true, "em": true, "b": true, "i": true, "a": true,
	"code": true, "pre": true, "br": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true, "thead": true, "tbody": true,
}

// converter holds the transient state of a single conversion: the output
// stream, the open-tag stack, and the list/table/link contexts being built.
// It is owned by one Convert call and discarded afterwards.
type converter struct {
	out strings.Builder

	insideTags []string

	listType  string
	listItems []string
	itemBuf   strings.Builder

	table    [][]string
	row      []string
	inRow    bool
	inHeader bool

	linkHref string

	complex bool
}

// Convert transcodes an HTML fragment to markdown. The second return value
// reports whether the fragment contained complex HTML that could not be
// fully represented. Convert never fails: a parse error is replaced by a
// note string with the complex flag set.
func Convert(fragment string) (markdown string, complex bool) {
	defer func() {
		if r := recover(); r != nil {
			markdown = "\n\n*HTML content (conversion error)*\n"
			complex = true
		}
	}()

	c := &converter{}
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				break
			}
			return "\n\n*HTML content (conversion error)*\n", true
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			c.startTag(tok)
		case html.SelfClosingTagToken:
			c.startTag(tok)
			c.endTag(tok.Data)
		case html.EndTagToken:
			c.endTag(tok.Data)
		case html.TextToken:
			c.text(tok.Data)
		}
	}
	return c.finish()
}

func (c *converter) startTag(tok html.Token) {
	tag := tok.Data
	c.insideTags = append(c.insideTags, tag)

	if !convertibleTags[tag] {
		c.complex = true
	}

	switch tag {
	case "p":
		c.out.WriteString("\n\n")
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		c.out.WriteString("\n" + strings.Repeat("#", level) + " ")
	case "strong", "b":
		c.out.WriteString("**")
	case "em", "i":
		c.out.WriteString("*")
	case "a":
		c.linkHref = attr(tok, "href")
		c.out.WriteString("[")
	case "code":
		c.out.WriteString("`")
	case "pre":
		c.out.WriteString("\n```\n")
	case "br":
		c.out.WriteString("\n")
	case "ul", "ol":
		c.listType = tag
		c.listItems = nil
	case "li":
		c.itemBuf.Reset()
	case "table":
		c.table = nil
	case "tr":
		c.inRow = true
		c.row = nil
	case "th", "thead":
		c.inHeader = true
	}
}

func (c *converter) endTag(tag string) {
	if n := len(c.insideTags); n > 0 && c.insideTags[n-1] == tag {
		c.insideTags = c.insideTags[:n-1]
	}

	switch tag {
	case "p":
		c.out.WriteString("\n")
	case "h1", "h2", "h3", "h4", "h5", "h6":
		c.out.WriteString("\n")
	case "strong", "b":
		c.out.WriteString("**")
	case "em", "i":
		c.out.WriteString("*")
	case "a":
		c.out.WriteString("](" + c.linkHref + ")")
	case "code":
		c.out.WriteString("`")
	case "pre":
		c.out.WriteString("\n```\n")
	case "ul", "ol":
		prefix := "- "
		if tag == "ol" {
			prefix = "1. "
		}
		for _, item := range c.listItems {
			c.out.WriteString("\n" + prefix + item)
		}
		c.listType = ""
		c.listItems = nil
		c.out.WriteString("\n")
	case "li":
		c.listItems = append(c.listItems, c.itemBuf.String())
		c.itemBuf.Reset()
	case "table":
		c.writeTable()
		c.table = nil
	case "tr":
		if len(c.row) > 0 {
			c.table = append(c.table, c.row)
		}
		c.inRow = false
		c.row = nil
	case "th", "thead":
		c.inHeader = false
	}
}

func (c *converter) text(data string) {
	switch {
	case c.listType != "" && c.topTag() == "li":
		c.itemBuf.WriteString(data)
	case c.inRow && strings.TrimSpace(data) != "":
		c.row = append(c.row, strings.TrimSpace(data))
	default:
		c.out.WriteString(data)
	}
}

// writeTable renders collected rows as a pipe table: the first row becomes
// the header, then a separator row, then the data rows padded to the header
// width.
func (c *converter) writeTable() {
	if len(c.table) == 0 {
		return
	}

	headers := c.table[0]
	var lines []string
	lines = append(lines, "| "+strings.Join(headers, " | ")+" |")

	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")

	for _, row := range c.table[1:] {
		for len(row) < len(headers) {
			row = append(row, "")
		}
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
	}

	c.out.WriteString("\n" + strings.Join(lines, "\n") + "\n")
}

var excessNewlines = regexp.MustCompile(`\n\s*\n\s*\n`)

func (c *converter) finish() (string, bool) {
	markdown := c.out.String()
	markdown = excessNewlines.ReplaceAllString(markdown, "\n\n")
	if c.complex {
		markdown += "\n\n*" + ComplexNote + "*\n"
	}
	return markdown, c.complex
}

func (c *converter) topTag() string {
	if len(c.insideTags) == 0 {
		return ""
	}
	return c.insideTags[len(c.insideTags)-1]
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
