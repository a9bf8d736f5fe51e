package source

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownReader handles markdown files. The body is passed through
// verbatim — the chunker rediscovers structure itself — but the document is
// parsed with goldmark to derive a title from the first top-level heading
// and to record an outline in the metadata.
type MarkdownReader struct{}

func (p *MarkdownReader) Read(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	title := baseTitle(filename)
	var headings []string
	codeBlocks := 0

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading := string(headingText(node, src))
			if node.Level == 1 && title == baseTitle(filename) && heading != "" {
				title = heading
			}
			if heading != "" {
				headings = append(headings, heading)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			codeBlocks++
		}
	}

	return &Document{
		Title:    title,
		Markdown: string(src),
		Meta: map[string]any{
			"title":       title,
			"headings":    headings,
			"code_blocks": codeBlocks,
		},
	}, nil
}

// headingText collects the inline text of a heading node.
func headingText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
		} else {
			buf.WriteString(headingText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
