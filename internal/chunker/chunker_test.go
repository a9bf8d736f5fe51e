package chunker

import (
	"strings"
	"testing"
)

// wordCounter is a deterministic TokenCounter for tests: one token per
// whitespace-separated word.
type wordCounter struct{}

func (wordCounter) Count(text, model string) int {
	return len(strings.Fields(text))
}

func newTestEngine() *Engine {
	return New(wordCounter{}, nil)
}

func TestChunk_FastPath(t *testing.T) {
	e := newTestEngine()
	content := "# Title\n\nA short document that fits the budget."
	chunks := e.Chunk(content, 100, "gpt-4")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != content {
		t.Errorf("fast path must return content unchanged, got %q", chunks[0])
	}
}

func TestChunk_EmptyContent(t *testing.T) {
	e := newTestEngine()
	if got := e.Chunk("", 10, "gpt-4"); len(got) != 0 {
		t.Errorf("expected no chunks for empty content, got %d", len(got))
	}
	if got := e.Chunk("   \n\n  ", 10, "gpt-4"); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace content, got %d", len(got))
	}
}

func TestChunk_SectionSplitReconstruction(t *testing.T) {
	content := "# One\n\n" + strings.Repeat("alpha beta gamma delta. ", 5) + "\n\n" +
		"# Two\n\n" + strings.Repeat("epsilon zeta eta theta. ", 5) + "\n\n" +
		"# Three\n\n" + strings.Repeat("iota kappa lambda mu. ", 5) + "\n"

	e := newTestEngine()
	chunks := e.Chunk(content, 30, "gpt-4")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	if got := strings.Join(chunks, ""); got != content {
		t.Errorf("concatenated chunks must reproduce the input exactly\nwant %q\ngot  %q", content, got)
	}

	// Each section is under budget, so every chunk must comply.
	for i, c := range chunks {
		if n := (wordCounter{}).Count(c, ""); n > 30 {
			t.Errorf("chunk %d: %d tokens exceeds budget 30", i, n)
		}
	}
}

func TestChunk_SectionBoundariesStartChunksAtHeaders(t *testing.T) {
	content := "# First\n\none two three four five\n\n# Second\n\nsix seven eight nine ten\n"
	e := newTestEngine()
	// Budget fits one section but not both.
	chunks := e.Chunk(content, 9, "gpt-4")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "# First") {
		t.Errorf("chunk 0 should start at first header, got %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "# Second") {
		t.Errorf("chunk 1 should start at second header, got %q", chunks[1])
	}
}

func TestChunk_NoHeadersFallsThroughToParagraphs(t *testing.T) {
	content := strings.Repeat("one two three four five six seven eight.\n\n", 6)
	e := newTestEngine()
	chunks := e.Chunk(content, 18, "gpt-4")
	if len(chunks) < 2 {
		t.Fatalf("expected paragraph-level split, got %d chunks", len(chunks))
	}
	if got := strings.Join(chunks, ""); got != content {
		t.Errorf("concatenated chunks must reproduce the input exactly")
	}
}

func TestChunk_CodeBlockIntegrity(t *testing.T) {
	code := "```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```"
	content := "# Demo\n\n" + strings.Repeat("words before the code block here. ", 4) + "\n\n" +
		code + "\n\n" + strings.Repeat("words after the code block here. ", 4) + "\n"

	e := newTestEngine()
	chunks := e.Chunk(content, 12, "gpt-4")

	found := 0
	for _, c := range chunks {
		if strings.Contains(c, code) {
			found++
		}
		// No chunk may contain a partial fence: fence markers come in pairs.
		if n := strings.Count(c, "```"); n%2 != 0 {
			t.Errorf("chunk contains an unbalanced code fence: %q", c)
		}
	}
	if found != 1 {
		t.Errorf("expected the code block intact inside exactly 1 chunk, found %d", found)
	}
	if got := strings.Join(chunks, ""); got != content {
		t.Errorf("concatenated chunks must reproduce the input exactly")
	}
}

func TestChunk_OversizedCodeParagraphEmittedVerbatim(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, "code statement number with extra words")
	}
	codePara := "```\n" + strings.Join(lines, "\n") + "\n```"
	content := "intro paragraph\n\n" + codePara + "\n\noutro paragraph\n"

	e := newTestEngine()
	chunks := e.Chunk(content, 20, "gpt-4")

	var hit bool
	for _, c := range chunks {
		if strings.Contains(c, codePara) {
			hit = true
			if n := (wordCounter{}).Count(c, ""); n <= 20 {
				t.Errorf("expected the code paragraph chunk to exceed the budget, got %d tokens", n)
			}
		}
	}
	if !hit {
		t.Fatal("code paragraph was split instead of emitted verbatim")
	}
}

func TestChunk_HeaderInsideFenceIsNotASection(t *testing.T) {
	content := "para one words here\n\n```\n# not a header\nmore code\n```\n\npara two words here\n"
	spans := segment(content)
	secs := splitSections(content, spans)
	if len(secs) != 1 {
		t.Fatalf("expected 1 section (no real headers), got %d", len(secs))
	}

	e := newTestEngine()
	chunks := e.Chunk(content, 6, "gpt-4")
	for _, c := range chunks {
		if strings.HasPrefix(c, "# not a header") {
			t.Errorf("chunk boundary landed inside a code fence: %q", c)
		}
	}
}

func TestChunk_OversizedSingletonSentence(t *testing.T) {
	// One sentence, no headers, no paragraph breaks, longer than the budget.
	sentence := strings.Repeat("word ", 50)
	e := newTestEngine()
	chunks := e.Chunk(sentence, 10, "gpt-4")
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk for an indivisible sentence, got %d", len(chunks))
	}
	if chunks[0] != sentence {
		t.Errorf("singleton chunk must equal the whole sentence")
	}
}

func TestChunk_SentenceSplitRespectsBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("This sentence has exactly seven words total. ")
	}
	content := b.String()

	e := newTestEngine()
	chunks := e.Chunk(content, 15, "gpt-4")
	if len(chunks) < 2 {
		t.Fatalf("expected sentence-level split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if n := (wordCounter{}).Count(c, ""); n > 15 {
			t.Errorf("chunk %d: %d tokens exceeds budget 15", i, n)
		}
	}
	if got := strings.Join(chunks, ""); got != content {
		t.Errorf("concatenated chunks must reproduce the input exactly")
	}
}

func TestSegment_PositionalCodeSpans(t *testing.T) {
	content := "a\n\n```\nx\n```\n\nb\n\n```\nx\n```\n\nc\n"
	spans := segment(content)

	var codeSpans []span
	for _, s := range spans {
		if s.kind == spanCode {
			codeSpans = append(codeSpans, s)
		}
	}
	if len(codeSpans) != 2 {
		t.Fatalf("expected 2 code spans for byte-identical blocks, got %d", len(codeSpans))
	}
	if codeSpans[0].start == codeSpans[1].start {
		t.Error("identical blocks must be distinguished by position")
	}

	// Spans must cover the content exactly, in order.
	pos := 0
	for _, s := range spans {
		if s.start != pos {
			t.Fatalf("span gap at offset %d", pos)
		}
		pos = s.end
	}
	if pos != len(content) {
		t.Errorf("spans cover %d bytes, want %d", pos, len(content))
	}
}

func TestSegment_LongerFenceSwallowsLookAlike(t *testing.T) {
	content := "````\n```\nnot a closer\n```\n````\nafter\n"
	spans := segment(content)
	if len(spans) != 2 {
		t.Fatalf("expected [code, text] spans, got %d", len(spans))
	}
	if spans[0].kind != spanCode {
		t.Fatal("expected leading code span")
	}
	if got := content[spans[0].start:spans[0].end]; !strings.HasSuffix(got, "````") {
		t.Errorf("four-backtick fence should close the block, got %q", got)
	}
}

func TestSegment_UnterminatedFenceRunsToEnd(t *testing.T) {
	content := "text\n```\nnever closed"
	spans := segment(content)
	last := spans[len(spans)-1]
	if last.kind != spanCode || last.end != len(content) {
		t.Errorf("unterminated fence must extend to end of document, got %+v", last)
	}
}

func TestSmartChunk_MetadataInEachChunk(t *testing.T) {
	meta := "## Notebook Metadata\n\n**Title:** Demo"
	content := strings.Repeat("one two three four five six seven eight.\n\n", 8)

	e := newTestEngine()
	chunks := e.SmartChunk(content, meta, 20, "gpt-4", true)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c, meta+"\n\n---\n\n") {
			t.Errorf("chunk %d missing metadata prefix: %q", i, c[:min(len(c), 40)])
		}
	}
}

func TestSmartChunk_MetadataFirstChunkOnly(t *testing.T) {
	meta := "## Notebook Metadata"
	content := strings.Repeat("one two three four five six seven eight.\n\n", 8)

	e := newTestEngine()
	chunks := e.SmartChunk(content, meta, 20, "gpt-4", false)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0], meta) {
		t.Errorf("first chunk missing metadata prefix")
	}
	for i, c := range chunks[1:] {
		if strings.HasPrefix(c, meta) {
			t.Errorf("chunk %d should not carry metadata", i+1)
		}
	}
}

func TestSmartChunk_BudgetFloor(t *testing.T) {
	// Metadata bigger than the whole budget: effective budget must floor at
	// budget/2 rather than collapsing to nothing.
	meta := strings.Repeat("meta ", 100)
	content := strings.Repeat("one two three four five six seven eight.\n\n", 8)

	e := newTestEngine()
	chunks := e.SmartChunk(content, meta, 40, "gpt-4", true)
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite oversized metadata")
	}
	for i, c := range chunks {
		body := strings.TrimPrefix(c, meta+"\n\n---\n\n")
		// Bodies should respect the floored budget of 20.
		if n := (wordCounter{}).Count(body, ""); n > 20 {
			t.Errorf("chunk %d body has %d tokens, want <= 20", i, n)
		}
	}
}

func TestSmartChunk_EmptyMetadataPassthrough(t *testing.T) {
	content := "short content"
	e := newTestEngine()
	chunks := e.SmartChunk(content, "", 100, "gpt-4", true)
	if len(chunks) != 1 || chunks[0] != content {
		t.Errorf("expected passthrough without metadata, got %q", chunks)
	}
}
