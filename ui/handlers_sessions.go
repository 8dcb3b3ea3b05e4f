package ui

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"savdash/adapters/export"
	"savdash/domain/core"
	"savdash/ports"
)

type addFilterRequest struct {
	VariableCode string `json:"variable_code"`
}

type toggleFilterRequest struct {
	IsApplied *bool `json:"is_applied"`
}

type generateResponse struct {
	Session sessionView           `json:"session"`
	Audit   ports.GenerationAudit `json:"audit"`
	Added   int                   `json:"added"`
}

func sessionID(r *http.Request) core.SessionID {
	return core.SessionID(chi.URLParam(r, "sid"))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.filters.Session(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleAvailableVariables(w http.ResponseWriter, r *http.Request) {
	vars, err := s.filters.Available(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": vars})
}

func (s *Server) handleGenerateFilters(w http.ResponseWriter, r *http.Request) {
	result, err := s.filters.Generate(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Session: newSessionView(result.Session),
		Audit:   result.Audit,
		Added:   result.Added,
	})
}

func (s *Server) handleAddManualFilter(w http.ResponseWriter, r *http.Request) {
	var req addFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "body", err.Error())
		return
	}
	code := strings.TrimSpace(req.VariableCode)
	if code == "" {
		badRequest(w, "variable_code", "required")
		return
	}

	sess, err := s.filters.AddManual(r.Context(), sessionID(r), core.VariableCode(code))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	sess, err := s.filters.Remove(r.Context(), sessionID(r), core.FilterID(chi.URLParam(r, "fid")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleToggleFilter(w http.ResponseWriter, r *http.Request) {
	var req toggleFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "body", err.Error())
		return
	}
	if req.IsApplied == nil {
		badRequest(w, "is_applied", "required")
		return
	}

	sess, err := s.filters.Toggle(r.Context(), sessionID(r), core.FilterID(chi.URLParam(r, "fid")), *req.IsApplied)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	seg, err := s.filters.Export(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=segmentation."+string(format))
	if err := export.WriteSegmentation(w, seg, format); err != nil {
		writeError(w, err)
	}
}
