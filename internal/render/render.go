// Package render wraps distilled content in its final output envelope.
package render

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/dgallion1/nbdistill/internal/metadata"
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatText     = "text"
)

// DetectFormat infers the output format from a destination file extension,
// defaulting to markdown.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	case ".txt":
		return FormatText
	}
	return FormatMarkdown
}

// Envelope wraps content and metadata for the requested format. Unknown
// formats fall back to markdown.
func Envelope(content string, meta map[string]any, format string) (string, error) {
	switch format {
	case FormatJSON:
		out, err := sonic.ConfigDefault.MarshalIndent(map[string]any{
			"metadata": meta,
			"content":  content,
		}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal json envelope: %w", err)
		}
		return string(out), nil

	case FormatText:
		return textEnvelope(content, meta), nil
	}

	md := metadata.FormatMarkdown(meta)
	if md == "" {
		return content, nil
	}
	return md + "\n\n---\n\n" + content, nil
}

var (
	fenceOpenRe = regexp.MustCompile("(?m)^```[^\n]*\n")
	fenceRe     = regexp.MustCompile("```")
	headerRe    = regexp.MustCompile(`(?m)^#+\s+(.+)$`)
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*(.+?)\*`)
)

// textEnvelope reduces markdown to plain text: fences removed, headers
// upper-cased, emphasis unwrapped, metadata rendered as KEY: value lines.
func textEnvelope(content string, meta map[string]any) string {
	plain := fenceOpenRe.ReplaceAllString(content, "")
	plain = fenceRe.ReplaceAllString(plain, "")
	plain = headerRe.ReplaceAllStringFunc(plain, func(m string) string {
		return strings.ToUpper(strings.TrimSpace(strings.TrimLeft(m, "# \t")))
	})
	plain = boldRe.ReplaceAllString(plain, "$1")
	plain = italicRe.ReplaceAllString(plain, "$1")

	if len(meta) == 0 {
		return plain
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		switch v := meta[k].(type) {
		case map[string]any:
			lines = append(lines, strings.ToUpper(k)+":")
			subKeys := make([]string, 0, len(v))
			for sk := range v {
				subKeys = append(subKeys, sk)
			}
			sort.Strings(subKeys)
			for _, sk := range subKeys {
				lines = append(lines, fmt.Sprintf("  %s: %v", sk, v[sk]))
			}
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", k, v))
		}
	}

	return "NOTEBOOK METADATA:\n" + strings.Join(lines, "\n") + "\n\n" + plain
}
