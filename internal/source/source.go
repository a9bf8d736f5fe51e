// Package source turns supported input formats into the flat markdown
// document the chunking pipeline consumes.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document is a parsed source ready for distillation: a title, the full
// markdown text, and any metadata the format carries.
type Document struct {
	Title    string
	Markdown string
	Meta     map[string]any
}

// Reader converts raw document bytes into a Document.
type Reader interface {
	Read(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".ipynb":    true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
	".csv":      true,
	".pdf":      true,
	".docx":     true,
}

// Config carries reader-level settings shared by ForFile.
type Config struct {
	IncludeCode     bool
	IncludeOutputs  bool
	MaxOutputLength int

	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string, cfg Config) (Reader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ipynb":
		return &NotebookReader{
			IncludeCode:     cfg.IncludeCode,
			IncludeOutputs:  cfg.IncludeOutputs,
			MaxOutputLength: cfg.MaxOutputLength,
		}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".txt":
		return &TextReader{}, nil
	case ".csv":
		return &CSVReader{}, nil
	case ".pdf":
		return &PDFReader{FallbackPdftotext: cfg.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// baseTitle strips the extension from a filename for use as a default title.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
