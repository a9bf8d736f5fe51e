package source

import (
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"notebook.ipynb", "*source.NotebookReader"},
		{"README.md", "*source.MarkdownReader"},
		{"doc.markdown", "*source.MarkdownReader"},
		{"page.html", "*source.HTMLReader"},
		{"page.HTM", "*source.HTMLReader"},
		{"notes.txt", "*source.TextReader"},
		{"data.csv", "*source.CSVReader"},
		{"paper.pdf", "*source.PDFReader"},
		{"report.docx", "*source.DOCXReader"},
	}
	for _, c := range cases {
		rd, err := ForFile(c.filename, Config{})
		if err != nil {
			t.Errorf("ForFile(%q): %v", c.filename, err)
			continue
		}
		if typeName(rd) != c.want {
			t.Errorf("ForFile(%q) = %s, want %s", c.filename, typeName(rd), c.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *NotebookReader:
		return "*source.NotebookReader"
	case *MarkdownReader:
		return "*source.MarkdownReader"
	case *HTMLReader:
		return "*source.HTMLReader"
	case *TextReader:
		return "*source.TextReader"
	case *CSVReader:
		return "*source.CSVReader"
	case *PDFReader:
		return "*source.PDFReader"
	case *DOCXReader:
		return "*source.DOCXReader"
	default:
		return "unknown"
	}
}

func TestForFileUnsupported(t *testing.T) {
	if _, err := ForFile("archive.zip", Config{}); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("a/b/Notebook.IPYNB") {
		t.Error("expected .IPYNB to be supported")
	}
	if IsSupportedExtension("file.exe") {
		t.Error("expected .exe to be unsupported")
	}
}

func TestTextReader(t *testing.T) {
	input := "line one\nline two\n\n\nsecond para\n"
	doc, err := (&TextReader{}).Read(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	want := "line one\nline two\n\nsecond para\n"
	if doc.Markdown != want {
		t.Errorf("markdown = %q, want %q", doc.Markdown, want)
	}
	if doc.Title != "notes" {
		t.Errorf("title = %q, want notes", doc.Title)
	}
	if doc.Meta["paragraphs"] != 2 {
		t.Errorf("paragraphs = %v, want 2", doc.Meta["paragraphs"])
	}
}

func TestMarkdownReaderPassthrough(t *testing.T) {
	input := "# My Doc\n\nBody text.\n\n## Details\n\n```go\ncode\n```\n"
	doc, err := (&MarkdownReader{}).Read(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Markdown != input {
		t.Error("markdown body should pass through verbatim")
	}
	if doc.Title != "My Doc" {
		t.Errorf("title = %q, want My Doc", doc.Title)
	}
	headings, _ := doc.Meta["headings"].([]string)
	if len(headings) != 2 || headings[0] != "My Doc" || headings[1] != "Details" {
		t.Errorf("headings = %v", headings)
	}
	if doc.Meta["code_blocks"] != 1 {
		t.Errorf("code_blocks = %v, want 1", doc.Meta["code_blocks"])
	}
}

func TestMarkdownReaderNoHeading(t *testing.T) {
	doc, err := (&MarkdownReader{}).Read(strings.NewReader("just text\n"), "plain.md")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "plain" {
		t.Errorf("title = %q, want plain", doc.Title)
	}
}

func TestHTMLReader(t *testing.T) {
	input := "<p>Hello <strong>world</strong></p>"
	doc, err := (&HTMLReader{}).Read(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.Markdown, "Hello **world**") {
		t.Errorf("markdown = %q", doc.Markdown)
	}
	if doc.Meta["complex_html"] != false {
		t.Errorf("complex_html = %v, want false", doc.Meta["complex_html"])
	}
}

func TestCSVReader(t *testing.T) {
	input := "name,age\nalice,30\nbob,25\n"
	doc, err := (&CSVReader{}).Read(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta["rows"] != 2 {
		t.Errorf("rows = %v, want 2", doc.Meta["rows"])
	}
	if !strings.Contains(doc.Markdown, "## Rows 2-3") {
		t.Errorf("missing batch heading in %q", doc.Markdown)
	}
	if !strings.Contains(doc.Markdown, "| name | age |") {
		t.Errorf("missing header row in %q", doc.Markdown)
	}
	if !strings.Contains(doc.Markdown, "| alice | 30 |") {
		t.Errorf("missing data row in %q", doc.Markdown)
	}
}

func TestCSVReaderShortRowPadded(t *testing.T) {
	input := "a,b,c\n1,2\n"
	doc, err := (&CSVReader{}).Read(strings.NewReader(input), "data.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.Markdown, "| 1 | 2 |  |") {
		t.Errorf("markdown = %q", doc.Markdown)
	}
}

func TestNotebookReader(t *testing.T) {
	nb := `{
		"nbformat": 4,
		"nbformat_minor": 5,
		"metadata": {"kernelspec": {"display_name": "Python 3", "language": "python"}},
		"cells": [
			{"cell_type": "markdown", "metadata": {}, "source": ["# Intro\n", "\n", "Some prose."]},
			{"cell_type": "code", "metadata": {}, "execution_count": 2,
			 "source": ["print('hi')"],
			 "outputs": [{"output_type": "stream", "name": "stdout", "text": ["hi\n"]}]}
		]
	}`
	rd := &NotebookReader{IncludeCode: true, IncludeOutputs: true, MaxOutputLength: 1000}
	doc, err := rd.Read(strings.NewReader(nb), "my_analysis.ipynb")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "My Analysis" {
		t.Errorf("title = %q, want My Analysis", doc.Title)
	}
	if !strings.HasPrefix(doc.Markdown, "# My Analysis\n\n") {
		t.Errorf("markdown should start with the title heading, got %q", doc.Markdown[:40])
	}
	if !strings.Contains(doc.Markdown, "# Intro") {
		t.Error("markdown cell content missing")
	}
	if !strings.Contains(doc.Markdown, "print('hi')") {
		t.Error("code cell content missing")
	}
	if !strings.Contains(doc.Markdown, "hi\n") {
		t.Error("stream output missing")
	}
	if doc.Meta == nil {
		t.Fatal("expected notebook metadata")
	}
}

func TestNotebookReaderExcludesCode(t *testing.T) {
	nb := `{"nbformat": 4, "nbformat_minor": 5, "metadata": {},
		"cells": [{"cell_type": "code", "metadata": {}, "execution_count": 1,
		           "source": ["secret()"], "outputs": []}]}`
	rd := &NotebookReader{IncludeCode: false, IncludeOutputs: true, MaxOutputLength: 1000}
	doc, err := rd.Read(strings.NewReader(nb), "nb.ipynb")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(doc.Markdown, "secret()") {
		t.Error("code should be excluded when IncludeCode is false")
	}
}

func TestNotebookReaderBadJSON(t *testing.T) {
	rd := &NotebookReader{}
	if _, err := rd.Read(strings.NewReader("{not json"), "nb.ipynb"); err == nil {
		t.Fatal("expected decode error")
	}
}
