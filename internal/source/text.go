package source

import (
	"bufio"
	"io"
	"strings"
)

// TextReader handles plain text files: paragraphs are normalized to
// blank-line-separated blocks so the chunker's paragraph pass sees them.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Title:    baseTitle(filename),
		Markdown: strings.Join(paragraphs, "\n\n") + "\n",
		Meta: map[string]any{
			"title":      baseTitle(filename),
			"paragraphs": len(paragraphs),
		},
	}, nil
}
