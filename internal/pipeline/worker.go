package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/nbdistill/internal/distill"
	"github.com/dgallion1/nbdistill/internal/source"
	"github.com/dgallion1/nbdistill/internal/stats"
)

// Worker processes a single distillation job.
type Worker struct {
	svc   *distill.Service
	stats *stats.Distillations
	log   *slog.Logger
}

func NewWorker(svc *distill.Service, st *stats.Distillations, log *slog.Logger) *Worker {
	return &Worker{svc: svc, stats: st, log: log}
}

// Process runs the distillation for a job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if ctx.Err() != nil {
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "canceled")
		return
	}

	job.SetStatus(StatusParsing, "parsing")
	if !source.IsSupportedExtension(job.Filename) {
		log.Error("unsupported format")
		job.AddError("unsupported file extension")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	job.SetStatus(StatusDistilling, "distilling")
	res, err := w.svc.Distill(job.FileData(), job.Filename, job.Options())
	if err != nil {
		log.Error("distillation failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "distilling")
		return
	}

	job.SetResult(res)
	job.SetStatus(StatusCompleted, "done")
	w.stats.Record(res.Duration, len(res.Chunks), res.TotalTokens)

	log.Info("distillation complete",
		"title", res.Title,
		"chunks", len(res.Chunks),
		"total_tokens", res.TotalTokens,
		"duration_ms", res.Duration.Milliseconds())
}
