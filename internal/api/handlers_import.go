package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgallion1/manuscript/internal/importer"
	"github.com/dgallion1/manuscript/internal/parser"
	"github.com/dgallion1/manuscript/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

var novelIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// upload is one file read from a multipart request.
type upload struct {
	filename  string
	mediaType string
	data      []byte
}

// handleImport queues an import that replaces the novel's chapters once it
// succeeds.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	novelID := chi.URLParam(r, "novelID")
	if !novelIDPattern.MatchString(novelID) {
		jsonError(w, "invalid novel id", http.StatusBadRequest)
		return
	}

	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(novelID, up.filename, up.mediaType, up.data)
	job.Force = r.FormValue("force") == "true"

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"novel_id": job.NovelID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/import/%s/status", job.ID),
	})
}

// handlePreview runs an import synchronously and returns the result without
// storing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	novel, err := importer.Import(r.Context(), up.data, up.filename, up.mediaType)
	if err != nil {
		s.log.Warn("preview failed", "filename", up.filename, "error", err)
		jsonError(w, err.Error(), importErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(novel)
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// readUpload reads the "file" part of a multipart request and rejects
// unsupported formats before anything is decoded. It writes the error
// response itself and reports whether the caller should continue.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	up := upload{
		filename:  sanitizeFilename(header.Filename),
		mediaType: r.FormValue("media_type"),
	}
	if up.mediaType == "" {
		up.mediaType = header.Header.Get("Content-Type")
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}
	if _, err := parser.Detect(up.filename, up.mediaType, data); err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(up.filename)), http.StatusUnsupportedMediaType)
		return upload{}, false
	}

	up.data = data
	return up, true
}

func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, parser.ErrCorruptContainer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
