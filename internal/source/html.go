package source

import (
	"io"
	"strings"

	"github.com/dgallion1/nbdistill/internal/htmlmd"
)

// HTMLReader handles HTML files by running them through the same
// HTML-to-markdown converter used for rich cell outputs.
type HTMLReader struct{}

func (p *HTMLReader) Read(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	markdown, complex := htmlmd.Convert(string(src))
	markdown = strings.TrimSpace(markdown) + "\n"

	return &Document{
		Title:    baseTitle(filename),
		Markdown: markdown,
		Meta: map[string]any{
			"title":        baseTitle(filename),
			"complex_html": complex,
		},
	}, nil
}
