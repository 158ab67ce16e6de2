package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mgreenly/bookdigest/internal/pipeline"
)

// completedJob fetches a job and rejects requests for artifacts that do
// not exist yet.
func (s *Server) completedJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	if job.Snapshot().Status != pipeline.StatusCompleted {
		jsonError(w, "digest not ready", http.StatusConflict)
		return nil
	}
	return job
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	sections, _, _ := job.Artifacts()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"segments": sections,
	})
}

func (s *Server) handleDigestMarkdown(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	_, markdown, _ := job.Artifacts()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(markdown))
}

func (s *Server) handleDigestHTML(w http.ResponseWriter, r *http.Request) {
	job := s.completedJob(w, r)
	if job == nil {
		return
	}
	_, _, html := job.Artifacts()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
