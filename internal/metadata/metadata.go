// Package metadata extracts and renders the notebook metadata that matters
// for LLM context: authorship, language/kernel, dates, tags and cell counts.
package metadata

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/nbdistill/internal/notebook"
)

// importantKeys are copied verbatim from the notebook metadata when present.
var importantKeys = []string{
	"title", "authors", "kernelspec", "language_info",
	"creation_date", "last_modified", "tags",
}

// CellCounts summarizes the notebook's cell population.
type CellCounts struct {
	Total          int            `json:"total"`
	ByType         map[string]int `json:"by_type"`
	CodeWithOutput int            `json:"code_cells_with_output"`
}

// Extract pulls the important metadata fields out of a notebook and adds
// cell statistics and an extraction timestamp.
func Extract(nb *notebook.Notebook) map[string]any {
	meta := make(map[string]any)

	for _, key := range importantKeys {
		if v, ok := nb.Metadata[key]; ok {
			meta[key] = v
		}
	}

	if ks, ok := nb.Metadata["kernelspec"].(map[string]any); ok {
		meta["kernel_name"] = stringOr(ks["name"], "unknown")
		meta["kernel_display_name"] = stringOr(ks["display_name"], "Unknown")
	}
	if li, ok := nb.Metadata["language_info"].(map[string]any); ok {
		meta["language"] = stringOr(li["name"], "unknown")
		meta["language_version"] = stringOr(li["version"], "unknown")
	}

	counts := CellCounts{
		Total:  len(nb.Cells),
		ByType: make(map[string]int),
	}
	for _, cell := range nb.Cells {
		t := cell.Type
		if t == "" {
			t = "unknown"
		}
		counts.ByType[t]++
		if cell.Type == notebook.CellTypeCode && len(cell.Outputs) > 0 {
			counts.CodeWithOutput++
		}
	}
	meta["cell_counts"] = counts

	meta["extraction_date"] = time.Now().Format(time.RFC3339)
	return meta
}

// FormatMarkdown renders metadata as a markdown block suitable for
// prepending to distilled content.
func FormatMarkdown(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}

	lines := []string{"## Notebook Metadata", ""}

	if title, ok := meta["title"].(string); ok && title != "" {
		lines = append(lines, fmt.Sprintf("**Title:** %s", title))
	}

	if authors, ok := meta["authors"]; ok {
		lines = append(lines, fmt.Sprintf("**Authors:** %s", joinValue(authors)))
	}

	var langParts []string
	if lang, ok := meta["language"].(string); ok {
		langParts = append(langParts, lang)
		if v, ok := meta["language_version"].(string); ok {
			langParts = append(langParts, "v"+v)
		}
	}
	if len(langParts) > 0 {
		lines = append(lines, fmt.Sprintf("**Language:** %s", strings.Join(langParts, " ")))
	}

	if kernel, ok := meta["kernel_display_name"].(string); ok {
		lines = append(lines, fmt.Sprintf("**Kernel:** %s", kernel))
	}
	if created, ok := meta["creation_date"].(string); ok {
		lines = append(lines, fmt.Sprintf("**Created:** %s", created))
	}
	if modified, ok := meta["last_modified"].(string); ok {
		lines = append(lines, fmt.Sprintf("**Last Modified:** %s", modified))
	}

	if counts, ok := meta["cell_counts"].(CellCounts); ok {
		lines = append(lines, "", "### Cell Statistics",
			fmt.Sprintf("**Total Cells:** %d", counts.Total))

		if len(counts.ByType) > 0 {
			lines = append(lines, "", "**Cell Types:**")
			types := make([]string, 0, len(counts.ByType))
			for t := range counts.ByType {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				lines = append(lines, fmt.Sprintf("- %s: %d", t, counts.ByType[t]))
			}
		}
		lines = append(lines, fmt.Sprintf("**Code Cells with Output:** %d", counts.CodeWithOutput))
	}

	if tags, ok := meta["tags"]; ok {
		if items := toStrings(tags); len(items) > 0 {
			lines = append(lines, "", "### Tags")
			for _, tag := range items {
				lines = append(lines, "- "+tag)
			}
		}
	}

	if date, ok := meta["extraction_date"].(string); ok {
		lines = append(lines, "", fmt.Sprintf("*Extracted on: %s*", date))
	}

	return strings.Join(lines, "\n")
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// joinValue renders a metadata value that may be a list or a scalar.
func joinValue(v any) string {
	if items := toStrings(v); len(items) > 0 {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%v", v)
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	}
	return nil
}
