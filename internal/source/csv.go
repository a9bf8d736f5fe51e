package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVReader handles CSV files, rendering batches of rows as markdown pipe
// tables under per-batch headings so large files keep section boundaries
// the chunker can split on.
type CSVReader struct{}

// csvBatchSize keeps individual tables small enough to chunk sensibly.
const csvBatchSize = 20

func (p *CSVReader) Read(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := baseTitle(filename)
	doc := &Document{
		Title: title,
		Meta:  map[string]any{"title": title, "rows": 0},
	}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	dataRows := records[1:]
	doc.Meta["rows"] = len(dataRows)

	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := i + csvBatchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}

		// 1-indexed source rows, accounting for the header line.
		fmt.Fprintf(&b, "## Rows %d-%d\n\n", i+2, end+1)
		b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
		b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		for _, row := range dataRows[i:end] {
			for len(row) < len(headers) {
				row = append(row, "")
			}
			b.WriteString("| " + strings.Join(row[:len(headers)], " | ") + " |\n")
		}
		b.WriteString("\n")
	}

	doc.Markdown = b.String()
	return doc, nil
}
