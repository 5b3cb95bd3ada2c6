package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.controller.StartSession(r.Context(), chi.URLParam(r, "scout_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, session)
}

func (s *Server) listScoutSessions(w http.ResponseWriter, r *http.Request) {
	scoutID := chi.URLParam(r, "scout_id")
	if _, err := s.scouts.GetScout(r.Context(), scoutID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	sessions, err := s.sessions.ListSessionsByScout(r.Context(), scoutID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if sessions == nil {
		sessions = []scout.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if sessions == nil {
		sessions = []scout.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetSession(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.controller.CancelSession(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) listSessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if _, err := s.sessions.GetSession(r.Context(), sessionID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	results, err := s.sessions.ListPageResults(r.Context(), sessionID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []scout.PageResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) exportSessionCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	// Buffer the export so a mid-write store failure does not leave the
	// client with a truncated 200 response.
	var buf bytes.Buffer
	if err := s.exporter.WriteSessionCSV(r.Context(), sessionID, &buf); err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "session-"+sessionID+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("write CSV response failed", zap.Error(err))
	}
}

func (s *Server) getScreenshot(w http.ResponseWriter, r *http.Request) {
	result, err := s.sessions.GetPageResult(r.Context(), chi.URLParam(r, "result_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if result.ScreenshotPath == "" {
		writeError(w, http.StatusNotFound, "no screenshot recorded for this result")
		return
	}
	if s.blobs == nil {
		writeError(w, http.StatusNotImplemented, "screenshot storage does not support reads")
		return
	}

	data, contentType, err := s.blobs.GetObject(r.Context(), result.ScreenshotPath)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write screenshot response failed", zap.Error(err))
	}
}
