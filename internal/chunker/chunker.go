package chunker

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/sentences"
)

// TokenCounter counts tokens in text for a given model. Chunking always
// delegates counting; it never estimates locally.
type TokenCounter interface {
	Count(text, model string) int
}

// Engine splits a document into chunks that respect a token budget while
// preserving structural boundaries. Splitting is lazy and coarsest-first:
// sections (header boundaries), then paragraphs (blank-line runs), then
// sentences. Fenced code blocks are atomic throughout.
type Engine struct {
	counter TokenCounter
	log     *slog.Logger
}

// New returns an Engine using counter for all token measurements.
func New(counter TokenCounter, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{counter: counter, log: log}
}

// headerRe matches a markdown header line: one or more '#', whitespace, text.
var headerRe = regexp.MustCompile(`^#+[ \t]+\S`)

// blankRunRe matches a paragraph separator: a run of two or more newlines.
var blankRunRe = regexp.MustCompile(`\n{2,}`)

// Chunk splits content into an ordered sequence of chunks, each within
// budget tokens except chunks wrapping a single indivisible oversized unit
// (a sentence, or a paragraph containing a code block). Chunks are contiguous
// slices of content in source order; their concatenation reproduces content
// exactly. Content that already fits the budget is returned unchanged as a
// single chunk.
func (e *Engine) Chunk(content string, budget int, model string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if budget < 1 {
		budget = 1
	}

	total := e.counter.Count(content, model)
	e.log.Debug("chunking content", "tokens", total, "budget", budget)
	if total <= budget {
		return []string{content}
	}

	spans := segment(content)
	acc := &accumulator{engine: e, budget: budget, model: model}

	for _, sec := range splitSections(content, spans) {
		text := content[sec.start:sec.end]
		n := e.counter.Count(text, model)
		if n <= budget {
			acc.add(text, n)
			continue
		}
		e.log.Debug("section exceeds budget, splitting further", "tokens", n)
		e.chunkSection(content, spans, sec, acc)
	}

	chunks := acc.finish()
	e.log.Debug("chunking complete", "chunks", len(chunks))
	return chunks
}

// chunkSection splits an oversized section into paragraphs, falling back to
// sentences for oversized paragraphs. A paragraph containing a fenced code
// block is never split: it is emitted verbatim even when it exceeds the
// budget, since code integrity outranks budget compliance.
func (e *Engine) chunkSection(content string, spans []span, sec piece, acc *accumulator) {
	for _, p := range splitParagraphs(content, spans, sec) {
		text := content[p.start:p.end]
		n := e.counter.Count(text, acc.model)
		if n <= acc.budget {
			acc.add(text, n)
			continue
		}
		if overlapsCode(spans, p.start, p.end) {
			e.log.Debug("oversized code-bearing paragraph emitted verbatim", "tokens", n)
			acc.emit(text)
			continue
		}
		e.log.Debug("paragraph exceeds budget, splitting by sentences", "tokens", n)
		e.chunkSentences(text, acc)
	}
}

// chunkSentences accumulates sentence segments; a single sentence over
// budget becomes its own chunk, as no finer granularity exists.
func (e *Engine) chunkSentences(text string, acc *accumulator) {
	for _, seg := range sentences.SegmentAll([]byte(text)) {
		sent := string(seg)
		n := e.counter.Count(sent, acc.model)
		if n > acc.budget {
			e.log.Debug("oversized sentence emitted as singleton chunk", "tokens", n)
			acc.emit(sent)
			continue
		}
		acc.add(sent, n)
	}
}

// splitSections slices content at header-line boundaries. Header lines are
// only recognized inside text spans, so a '#' line within a fenced code
// block never starts a section. Each section includes its header line and
// runs to the next header or end of document. A whitespace-only leading
// slice (before the first header) is dropped.
func splitSections(content string, spans []span) []piece {
	boundaries := []int{0}
	for _, s := range spans {
		if s.kind != spanText {
			continue
		}
		pos := s.start
		for pos < s.end {
			lineEnd := strings.IndexByte(content[pos:s.end], '\n')
			var next int
			if lineEnd < 0 {
				next = s.end
				lineEnd = s.end
			} else {
				lineEnd += pos
				next = lineEnd + 1
			}
			if pos > 0 && headerRe.MatchString(content[pos:lineEnd]) {
				boundaries = append(boundaries, pos)
			}
			pos = next
		}
	}

	var out []piece
	for i, start := range boundaries {
		end := len(content)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		if start >= end {
			continue
		}
		if strings.TrimSpace(content[start:end]) == "" {
			continue
		}
		out = append(out, piece{start: start, end: end})
	}
	return out
}

// splitParagraphs slices a section at blank-line runs, again only inside
// text spans. Each paragraph keeps its trailing separator so the pieces
// cover the section exactly.
func splitParagraphs(content string, spans []span, sec piece) []piece {
	var boundaries []int
	for _, s := range spans {
		if s.kind != spanText {
			continue
		}
		lo, hi := s.start, s.end
		if lo < sec.start {
			lo = sec.start
		}
		if hi > sec.end {
			hi = sec.end
		}
		if lo >= hi {
			continue
		}
		for _, m := range blankRunRe.FindAllStringIndex(content[lo:hi], -1) {
			b := lo + m[1] // paragraph starts after the blank run
			if b > sec.start && b < sec.end {
				boundaries = append(boundaries, b)
			}
		}
	}

	out := make([]piece, 0, len(boundaries)+1)
	start := sec.start
	for _, b := range boundaries {
		if b <= start {
			continue
		}
		out = append(out, piece{start: start, end: b})
		start = b
	}
	if start < sec.end {
		out = append(out, piece{start: start, end: sec.end})
	}
	return out
}

// accumulator implements the flush-on-overflow rule shared by every
// granularity: when adding the next piece would exceed the budget and the
// buffer is non-empty, the buffer is flushed as a completed chunk.
type accumulator struct {
	engine *Engine
	budget int
	model  string

	buf    strings.Builder
	tokens int
	chunks []string
}

func (a *accumulator) add(text string, tokens int) {
	if a.tokens+tokens > a.budget && a.buf.Len() > 0 {
		a.flush()
	}
	a.buf.WriteString(text)
	a.tokens += tokens
}

// emit flushes the buffer and appends text as its own chunk, bypassing the
// budget check. Used for indivisible oversized units.
func (a *accumulator) emit(text string) {
	a.flush()
	a.chunks = append(a.chunks, text)
}

func (a *accumulator) flush() {
	if a.buf.Len() == 0 {
		return
	}
	a.chunks = append(a.chunks, a.buf.String())
	a.buf.Reset()
	a.tokens = 0
}

func (a *accumulator) finish() []string {
	a.flush()
	return a.chunks
}
