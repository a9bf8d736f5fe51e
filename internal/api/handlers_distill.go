package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/nbdistill/internal/distill"
	"github.com/dgallion1/nbdistill/internal/pipeline"
	"github.com/dgallion1/nbdistill/internal/render"
	"github.com/dgallion1/nbdistill/internal/source"
)

// handleDistill processes an upload synchronously and returns the result.
func (s *Server) handleDistill(w http.ResponseWriter, r *http.Request) {
	data, filename, opts, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	res, err := s.svc.Distill(data, filename, opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.orchestrator.Stats().Record(res.Duration, len(res.Chunks), res.TotalTokens)

	writeJSON(w, http.StatusOK, res)
}

// handleDistillAsync queues an upload and returns a job to poll.
func (s *Server) handleDistillAsync(w http.ResponseWriter, r *http.Request) {
	data, filename, opts, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(filename, data, opts)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/distill/%s/status", job.ID),
	})
}

func (s *Server) handleDistillStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleDistillResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		writeJSON(w, http.StatusOK, job.Result())
	case pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"errors": snap.Errors,
		})
	default:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"phase":  snap.Phase,
		})
	}
}

// readUpload pulls the file and per-request option overrides out of a
// multipart distill request. On failure it writes the error response and
// returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, opts distill.Options, ok bool) {
	// Limit total request size, with some slack for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", opts, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", opts, false
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	if !source.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, "", opts, false
	}

	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, "", opts, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, "", opts, false
	}

	return data, filename, s.parseOptions(r.MultipartForm), true
}

// parseOptions applies per-request form overrides on top of the server
// defaults.
func (s *Server) parseOptions(form *multipart.Form) distill.Options {
	opts := distill.DefaultOptions()
	opts.ChunkSize = s.cfg.DefaultChunkSize
	opts.Model = s.cfg.DefaultModel
	opts.MaxOutputLength = s.cfg.DefaultMaxOutputLength
	opts.PDFFallbackPdftotext = s.cfg.PDFFallbackPdftotext

	get := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	if v := get("include_code"); v != "" {
		opts.IncludeCode = v != "false"
	}
	if v := get("include_outputs"); v != "" {
		opts.IncludeOutputs = v != "false"
	}
	if v := get("include_metadata"); v != "" {
		opts.IncludeMetadata = v != "false"
	}
	if v := get("metadata_in_each_chunk"); v != "" {
		opts.MetadataInEachChunk = v != "false"
	}
	if v := get("estimate_tokens"); v != "" {
		opts.EstimateTokens = v == "true"
	}
	if v := get("max_output_length"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxOutputLength = n
		}
	}
	if v := get("chunk_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.ChunkSize = n
		}
	}
	if v := get("model"); v != "" {
		opts.Model = v
	}
	if v := get("format"); v == render.FormatJSON || v == render.FormatText {
		opts.Format = v
	}
	return opts
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
