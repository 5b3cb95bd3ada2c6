package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/landingscout/landingscout/internal/schedule"
	"github.com/landingscout/landingscout/internal/scout"
)

// scoutRequest is the create/update payload for a scout definition.
type scoutRequest struct {
	Name            string               `json:"name"`
	StartURL        string               `json:"startUrl"`
	Schedule        string               `json:"schedule"`
	PageTypes       []scout.PageTypeRule `json:"pageTypes"`
	Active          *bool                `json:"active"`
	MaxPagesToVisit int                  `json:"maxPagesToVisit"`
	TimeoutSeconds  int                  `json:"timeoutSeconds"`
}

func (req scoutRequest) validate() error {
	if req.Name == "" {
		return errors.New("name is required")
	}
	parsed, err := url.Parse(req.StartURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.New("startUrl must be an absolute http(s) URL")
	}
	if err := schedule.Validate(req.Schedule); err != nil {
		return err
	}
	if len(req.PageTypes) == 0 {
		return errors.New("at least one page type rule is required")
	}
	for i, rule := range req.PageTypes {
		if rule.Type == "" {
			return fmt.Errorf("pageTypes[%d].type is required", i)
		}
	}
	if req.MaxPagesToVisit < 0 {
		return errors.New("maxPagesToVisit must be >= 0")
	}
	if req.TimeoutSeconds < 0 {
		return errors.New("timeoutSeconds must be >= 0")
	}
	return nil
}

func (s *Server) createScout(w http.ResponseWriter, r *http.Request) {
	var req scoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.idGen.NewID()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	now := s.clock.Now()
	next, err := schedule.Next(req.Schedule, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	sc := scout.Scout{
		ID:              id,
		Name:            req.Name,
		StartURL:        req.StartURL,
		Schedule:        req.Schedule,
		PageTypes:       req.PageTypes,
		Active:          active,
		MaxPagesToVisit: req.MaxPagesToVisit,
		Timeout:         time.Duration(req.TimeoutSeconds) * time.Second,
		NextRunAt:       &next,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.scouts.CreateScout(r.Context(), sc); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) listScouts(w http.ResponseWriter, r *http.Request) {
	scouts, err := s.scouts.ListScouts(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if scouts == nil {
		scouts = []scout.Scout{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scouts": scouts})
}

func (s *Server) getScout(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scouts.GetScout(r.Context(), chi.URLParam(r, "scout_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) updateScout(w http.ResponseWriter, r *http.Request) {
	var req scoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sc, err := s.scouts.GetScout(r.Context(), chi.URLParam(r, "scout_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	now := s.clock.Now()
	if req.Schedule != sc.Schedule {
		next, err := schedule.Next(req.Schedule, now)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sc.NextRunAt = &next
	}

	sc.Name = req.Name
	sc.StartURL = req.StartURL
	sc.Schedule = req.Schedule
	sc.PageTypes = req.PageTypes
	if req.Active != nil {
		sc.Active = *req.Active
	}
	sc.MaxPagesToVisit = req.MaxPagesToVisit
	sc.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	sc.UpdatedAt = now

	if err := s.scouts.UpdateScout(r.Context(), sc); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) deleteScout(w http.ResponseWriter, r *http.Request) {
	if err := s.scouts.DeleteScout(r.Context(), chi.URLParam(r, "scout_id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
