package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/epiclist/internal/pipeline"
)

type batchRequest struct {
	Documents []pipeline.Document `json:"documents"`
}

func (s *Server) handleBatchExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if tooLarge(err) {
			jsonError(w, "batch too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "at least one document is required", http.StatusBadRequest)
		return
	}
	for i := range req.Documents {
		doc := &req.Documents[i]
		if doc.Name == "" {
			doc.Name = fmt.Sprintf("document-%d.md", i+1)
		}
		doc.Name = sanitizeFilename(doc.Name)
		if int64(len(doc.Markdown)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("%s exceeds max size (%d bytes)", doc.Name, s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
	}

	job := pipeline.NewJob(req.Documents)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":    job.ID,
		"status":    pipeline.StatusQueued,
		"documents": len(req.Documents),
		"poll_url":  fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
