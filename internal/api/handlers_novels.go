package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/manuscript/internal/export"
	"github.com/dgallion1/manuscript/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleGetNovel returns a novel's title and its ordered chapter list.
func (s *Server) handleGetNovel(w http.ResponseWriter, r *http.Request) {
	novelID := chi.URLParam(r, "novelID")
	novel, err := s.library.GetNovel(r.Context(), novelID)
	if err != nil {
		s.storeError(w, "failed to load novel", err)
		return
	}
	chapters, err := s.library.ListChapters(r.Context(), novelID)
	if err != nil {
		s.storeError(w, "failed to list chapters", err)
		return
	}
	if chapters == nil {
		chapters = []store.Chapter{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"novel":    novel,
		"chapters": chapters,
	})
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	ch, err := s.library.GetChapter(r.Context(), chi.URLParam(r, "novelID"), chi.URLParam(r, "chapterID"))
	if err != nil {
		s.storeError(w, "failed to load chapter", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ch)
}

// handleDeleteNovel deletes a novel and all its chapters.
func (s *Server) handleDeleteNovel(w http.ResponseWriter, r *http.Request) {
	novelID := chi.URLParam(r, "novelID")
	if err := s.library.DeleteNovel(r.Context(), novelID); err != nil {
		s.storeError(w, "failed to delete novel", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": novelID})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	novelID := chi.URLParam(r, "novelID")
	novel, err := s.library.GetNovel(r.Context(), novelID)
	if err != nil {
		s.storeError(w, "failed to load novel", err)
		return
	}
	stored, err := s.library.LoadChapters(r.Context(), novelID)
	if err != nil {
		s.storeError(w, "failed to load chapters", err)
		return
	}
	chapters := make([]export.Chapter, 0, len(stored))
	for _, ch := range stored {
		chapters = append(chapters, export.Chapter{Title: ch.Title, Doc: ch.Doc})
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, novel.Title, chapters); err != nil {
		s.log.Error("export failed", "novel_id", novelID, "format", format, "error", err)
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

func (s *Server) storeError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error(msg, "error", err)
	jsonError(w, msg+": "+err.Error(), http.StatusInternalServerError)
}
