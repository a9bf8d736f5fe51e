package render

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"out.md", FormatMarkdown},
		{"out.markdown", FormatMarkdown},
		{"out.json", FormatJSON},
		{"out.txt", FormatText},
		{"out.bin", FormatMarkdown},
		{"", FormatMarkdown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.path); got != tc.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestEnvelope_MarkdownWithMetadata(t *testing.T) {
	out, err := Envelope("# Body\n", map[string]any{"title": "T"}, FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "## Notebook Metadata") {
		t.Errorf("expected metadata block, got %q", out)
	}
	if !strings.Contains(out, "\n\n---\n\n# Body\n") {
		t.Errorf("expected separator before body, got %q", out)
	}
}

func TestEnvelope_MarkdownWithoutMetadata(t *testing.T) {
	out, err := Envelope("# Body\n", nil, FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "# Body\n" {
		t.Errorf("expected bare content, got %q", out)
	}
}

func TestEnvelope_JSON(t *testing.T) {
	out, err := Envelope("body text", map[string]any{"title": "T"}, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Metadata map[string]any `json:"metadata"`
		Content  string         `json:"content"`
	}
	if err := sonic.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}
	if decoded.Content != "body text" {
		t.Errorf("expected content round-trip, got %q", decoded.Content)
	}
	if decoded.Metadata["title"] != "T" {
		t.Errorf("expected metadata round-trip, got %v", decoded.Metadata)
	}
}

func TestEnvelope_Text(t *testing.T) {
	content := "# Heading\n\nSome **bold** and *soft* words.\n\n```python\nx = 1\n```\n"
	out, err := Envelope(content, map[string]any{"language": "python"}, FormatText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "HEADING") {
		t.Errorf("expected upper-cased heading, got %q", out)
	}
	if strings.Contains(out, "```") {
		t.Errorf("expected fences stripped, got %q", out)
	}
	if !strings.Contains(out, "x = 1") {
		t.Errorf("expected code content preserved, got %q", out)
	}
	if strings.Contains(out, "**") {
		t.Errorf("expected bold markers removed, got %q", out)
	}
	if !strings.Contains(out, "NOTEBOOK METADATA:") || !strings.Contains(out, "language: python") {
		t.Errorf("expected metadata lines, got %q", out)
	}
}

func TestEnvelope_UnknownFormatFallsBackToMarkdown(t *testing.T) {
	out, err := Envelope("body", nil, "weird")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "body" {
		t.Errorf("expected markdown fallback, got %q", out)
	}
}
