// Package distill ties the source readers, chunk engine, and output
// rendering together into the one operation the server and CLI both run.
package distill

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/nbdistill/internal/chunker"
	"github.com/dgallion1/nbdistill/internal/metadata"
	"github.com/dgallion1/nbdistill/internal/render"
	"github.com/dgallion1/nbdistill/internal/source"
	"github.com/dgallion1/nbdistill/internal/tokens"
)

// Options controls a single distillation run.
type Options struct {
	IncludeCode         bool
	IncludeOutputs      bool
	IncludeMetadata     bool
	MaxOutputLength     int
	ChunkSize           int
	Model               string
	Format              string
	MetadataInEachChunk bool
	EstimateTokens      bool

	PDFFallbackPdftotext bool
}

// DefaultOptions mirror the CLI defaults.
func DefaultOptions() Options {
	return Options{
		IncludeCode:         true,
		IncludeOutputs:      true,
		IncludeMetadata:     true,
		MaxOutputLength:     2000,
		Model:               "gpt-4",
		Format:              render.FormatMarkdown,
		MetadataInEachChunk: true,
	}
}

// Result is the outcome of one distillation.
type Result struct {
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Chunks      []string       `json:"chunks,omitempty"`
	TokenCounts []int          `json:"token_counts,omitempty"`
	TotalTokens int            `json:"total_tokens,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Duration    time.Duration  `json:"-"`
}

// Service runs distillations. The counter is shared with the chunk engine
// so per-chunk counts agree with the budget the engine enforced.
type Service struct {
	Estimator chunker.TokenCounter
	Engine    *chunker.Engine
	Log       *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	est := tokens.NewEstimator()
	return &Service{
		Estimator: est,
		Engine:    chunker.New(est, log),
		Log:       log,
	}
}

// Distill parses the file, renders it as markdown, and optionally chunks it
// to the requested token budget.
func (s *Service) Distill(data []byte, filename string, opts Options) (*Result, error) {
	start := time.Now()

	reader, err := source.ForFile(filename, source.Config{
		IncludeCode:          opts.IncludeCode,
		IncludeOutputs:       opts.IncludeOutputs,
		MaxOutputLength:      opts.MaxOutputLength,
		PDFFallbackPdftotext: opts.PDFFallbackPdftotext,
	})
	if err != nil {
		return nil, err
	}

	doc, err := reader.Read(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	res := &Result{Title: doc.Title}
	if opts.IncludeMetadata {
		res.Metadata = doc.Meta
	}

	if opts.ChunkSize > 0 {
		metaMD := ""
		if opts.IncludeMetadata {
			metaMD = metadata.FormatMarkdown(doc.Meta)
		}
		res.Chunks = s.Engine.SmartChunk(doc.Markdown, metaMD,
			opts.ChunkSize, opts.Model, opts.MetadataInEachChunk)

		for _, chunk := range res.Chunks {
			n := s.Estimator.Count(chunk, opts.Model)
			res.TokenCounts = append(res.TokenCounts, n)
			res.TotalTokens += n
		}

		s.Log.Debug("distilled with chunking",
			"file", filename,
			"chunks", len(res.Chunks),
			"total_tokens", res.TotalTokens)
	} else {
		content, err := render.Envelope(doc.Markdown, res.Metadata, opts.Format)
		if err != nil {
			return nil, err
		}
		res.Content = content

		if opts.EstimateTokens {
			res.TotalTokens = s.Estimator.Count(content, opts.Model)
		}

		s.Log.Debug("distilled",
			"file", filename,
			"format", opts.Format,
			"bytes", len(content))
	}

	res.Duration = time.Since(start)
	return res, nil
}
