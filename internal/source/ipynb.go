package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/nbdistill/internal/formatter"
	"github.com/dgallion1/nbdistill/internal/metadata"
	"github.com/dgallion1/nbdistill/internal/notebook"
)

// NotebookReader handles Jupyter .ipynb files, the primary input format.
type NotebookReader struct {
	IncludeCode     bool
	IncludeOutputs  bool
	MaxOutputLength int
}

func (p *NotebookReader) Read(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	nb, err := notebook.Decode(data)
	if err != nil {
		return nil, err
	}

	title := notebook.Title(filename, nb)

	opts := formatter.Options{
		IncludeCode:     p.IncludeCode,
		IncludeOutputs:  p.IncludeOutputs,
		MaxOutputLength: p.MaxOutputLength,
	}

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	for i, cell := range nb.Cells {
		rendered, ok := renderCell(cell, opts)
		if !ok {
			// A malformed cell must not sink the document.
			fmt.Fprintf(&b, "*Error processing cell %d*\n\n", i)
			continue
		}
		b.WriteString(rendered)
	}

	return &Document{
		Title:    title,
		Markdown: b.String(),
		Meta:     metadata.Extract(nb),
	}, nil
}

// renderCell formats one cell, converting a panic from pathological cell
// content into a failed-cell signal.
func renderCell(cell notebook.Cell, opts formatter.Options) (rendered string, ok bool) {
	defer func() {
		if recover() != nil {
			rendered, ok = "", false
		}
	}()
	return formatter.Cell(cell, opts), true
}
