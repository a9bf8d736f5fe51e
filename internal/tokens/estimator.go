package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used when a model name is not recognized by tiktoken.
// cl100k_base covers gpt-4 and gpt-3.5-turbo.
const fallbackEncoding = "cl100k_base"

// Estimator counts tokens for a given model, memoizing one encoder per model
// name so encoders are built at most once per process.
type Estimator struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewEstimator returns an Estimator with an empty encoder cache.
func NewEstimator() *Estimator {
	return &Estimator{
		encoders: make(map[string]*tiktoken.Tiktoken),
	}
}

// Count returns the token count of text for the given model. An unrecognized
// model falls back to the default encoding; if no encoder can be built at all,
// a word-ratio heuristic is used. Count never fails and never returns a
// negative number.
func (e *Estimator) Count(text, model string) int {
	if text == "" {
		return 0
	}
	enc := e.encoderFor(model)
	if enc == nil {
		return heuristicTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// encoderFor returns the cached encoder for model, building it on first use.
// A nil entry is cached when neither the model encoder nor the fallback
// encoding is available, so the lookup is not retried on every call.
func (e *Estimator) encoderFor(model string) *tiktoken.Tiktoken {
	e.mu.Lock()
	defer e.mu.Unlock()

	if enc, ok := e.encoders[model]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			enc = nil
		}
	}
	e.encoders[model] = enc
	return enc
}

// heuristicTokens estimates tokens from word count (~1.33 tokens per English
// word). Last resort when no encoder is available.
func heuristicTokens(text string) int {
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 && len(text) > 0 {
		tokens = 1
	}
	return tokens
}
