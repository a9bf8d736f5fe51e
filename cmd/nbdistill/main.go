// Command nbdistill distills notebooks and other documents into clean
// markdown, JSON, or plain text optimized for LLM consumption.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/nbdistill/internal/distill"
	"github.com/dgallion1/nbdistill/internal/render"
)

func main() {
	var (
		output             string
		format             string
		noCode             bool
		noOutputs          bool
		noMetadata         bool
		maxOutputLength    int
		chunkSize          int
		noMetadataInChunks bool
		estimateTokens     bool
		model              string
		verbose            bool
	)

	flag.StringVar(&output, "o", "", "output file path (defaults to stdout)")
	flag.StringVar(&output, "output", "", "output file path (defaults to stdout)")
	flag.StringVar(&format, "format", "", "output format: markdown, json, or text (defaults based on output extension)")
	flag.BoolVar(&noCode, "no-code", false, "exclude code cells from the output")
	flag.BoolVar(&noOutputs, "no-outputs", false, "exclude cell outputs from the output")
	flag.BoolVar(&noMetadata, "no-metadata", false, "exclude notebook metadata from the output")
	flag.IntVar(&maxOutputLength, "max-output-length", 2000, "maximum length for any single output")
	flag.IntVar(&chunkSize, "chunk-size", 0, "split output into chunks of this approximate token size")
	flag.BoolVar(&noMetadataInChunks, "no-metadata-in-chunks", false, "include metadata only in the first chunk")
	flag.BoolVar(&estimateTokens, "estimate-tokens", false, "estimate and display token count")
	flag.StringVar(&model, "model", "gpt-4", "model to use for token estimation")
	flag.BoolVar(&verbose, "v", false, "enable verbose logging")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if format == "" {
		if output != "" {
			format = render.DetectFormat(output)
		} else {
			format = render.FormatMarkdown
		}
	}
	switch format {
	case render.FormatMarkdown, render.FormatJSON, render.FormatText:
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (use markdown, json, or text)\n", format)
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	opts := distill.Options{
		IncludeCode:         !noCode,
		IncludeOutputs:      !noOutputs,
		IncludeMetadata:     !noMetadata,
		MaxOutputLength:     maxOutputLength,
		ChunkSize:           chunkSize,
		Model:               model,
		Format:              format,
		MetadataInEachChunk: !noMetadataInChunks,
		EstimateTokens:      estimateTokens,

		PDFFallbackPdftotext: true,
	}

	svc := distill.NewService(log)
	res, err := svc.Distill(data, filepath.Base(path), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if len(res.Chunks) > 0 {
		if err := emitChunks(res, output, format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if estimateTokens {
			fmt.Fprintf(os.Stderr, "Estimated total tokens: %d\n", res.TotalTokens)
			fmt.Fprintf(os.Stderr, "Chunks: %d\n", len(res.Chunks))
			for i, n := range res.TokenCounts {
				fmt.Fprintf(os.Stderr, "Chunk %d: ~%d tokens\n", i+1, n)
			}
		}
		return
	}

	if estimateTokens {
		fmt.Fprintf(os.Stderr, "Estimated tokens: %d\n", res.TotalTokens)
	}
	if output == "" {
		fmt.Println(res.Content)
		return
	}
	if err := writeFile(output, res.Content); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// emitChunks writes chunks to per-chunk files next to the requested output
// path, or to stdout with separators when no output path was given.
func emitChunks(res *distill.Result, output, format string) error {
	if output == "" {
		for i, chunk := range res.Chunks {
			fmt.Printf("\n--- CHUNK %d ---\n\n", i+1)
			fmt.Println(chunk)
		}
		return nil
	}

	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	for i, chunk := range res.Chunks {
		enveloped, err := render.Envelope(chunk, res.Metadata, format)
		if err != nil {
			return err
		}
		chunkPath := fmt.Sprintf("%s_chunk%d%s", base, i+1, ext)
		if err := writeFile(chunkPath, enveloped); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: nbdistill [flags] <file>

Distill Jupyter notebooks (and markdown, HTML, text, CSV, PDF, and DOCX
files) into clean formats optimized for LLMs.

Flags:
`)
	flag.PrintDefaults()
}
