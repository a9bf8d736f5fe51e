// Package notebook decodes Jupyter notebooks (nbformat v4).
package notebook

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

// Cell types defined by nbformat.
const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"
	CellTypeRaw      = "raw"
)

// Mime types that can appear in output data bundles.
const (
	MimeTextPlain    = "text/plain"
	MimeTextHTML     = "text/html"
	MimeTextLatex    = "text/latex"
	MimeTextMarkdown = "text/markdown"
	MimeImagePNG     = "image/png"
	MimeImageJPEG    = "image/jpeg"
	MimeImageSVG     = "image/svg+xml"
	MimeAppJSON      = "application/json"
)

// Notebook is a decoded .ipynb document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is a single notebook cell.
type Cell struct {
	Type           string         `json:"cell_type"`
	Source         MultilineText  `json:"source"`
	Metadata       map[string]any `json:"metadata"`
	Outputs        []Output       `json:"outputs"`
	ExecutionCount *int           `json:"execution_count"`
}

// Output is one entry of a code cell's outputs array.
type Output struct {
	Type string `json:"output_type"`

	// stream
	Name string        `json:"name"`
	Text MultilineText `json:"text"`

	// execute_result / display_data
	Data map[string]any `json:"data"`

	// error
	EName     string   `json:"ename"`
	EValue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// MultilineText is a string that nbformat may serialize either as a plain
// string or as an array of line strings.
type MultilineText string

func (m *MultilineText) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*m = ""
		return nil
	}
	if data[0] == '[' {
		var lines []string
		if err := sonic.Unmarshal(data, &lines); err != nil {
			return err
		}
		*m = MultilineText(strings.Join(lines, ""))
		return nil
	}
	var s string
	if err := sonic.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = MultilineText(s)
	return nil
}

func (m MultilineText) String() string { return string(m) }

// Decode parses raw .ipynb bytes.
func Decode(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := sonic.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}
	if nb.NBFormat != 0 && nb.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat version %d (need 4)", nb.NBFormat)
	}
	return &nb, nil
}

// DataString normalizes a mime-bundle value, which may be a string or an
// array of line strings, into a single string.
func DataString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var b strings.Builder
		for _, part := range t {
			if s, ok := part.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	default:
		return ""
	}
}

var (
	underscoreRe = regexp.MustCompile(`_`)
	camelRe      = regexp.MustCompile(`([a-z])([A-Z])`)
)

// Title derives a human-readable title: the notebook metadata `title` field
// when present, otherwise the filename with snake_case/CamelCase expanded
// and words capitalized.
func Title(path string, nb *Notebook) string {
	if nb != nil {
		if t, ok := nb.Metadata["title"].(string); ok && t != "" {
			return t
		}
	}

	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = underscoreRe.ReplaceAllString(name, " ")
	name = camelRe.ReplaceAllString(name, "$1 $2")

	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
