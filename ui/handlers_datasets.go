package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"savdash/domain/core"
)

type importDatasetRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 50)
	if err != nil {
		badRequest(w, "limit", "must be an integer")
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		badRequest(w, "offset", "must be an integer")
		return
	}

	list, err := s.datasets.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": list})
}

func (s *Server) handleImportDataset(w http.ResponseWriter, r *http.Request) {
	var req importDatasetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "body", err.Error())
		return
	}

	ds, err := s.datasets.Import(r.Context(), req.Name, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds.Summarize())
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.datasets.Get(r.Context(), core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dataset":   ds.Summarize(),
		"variables": ds.Variables,
	})
}

func (s *Server) handleDatasetRows(w http.ResponseWriter, r *http.Request) {
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		badRequest(w, "offset", "must be an integer")
		return
	}
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		badRequest(w, "limit", "must be an integer")
		return
	}

	page, err := s.datasets.Rows(r.Context(), core.DatasetID(chi.URLParam(r, "id")), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDatasetQuality(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.Quality(r.Context(), core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleVariableStatistics(w http.ResponseWriter, r *http.Request) {
	topN, err := intQuery(r, "top_n", 0)
	if err != nil || topN < 0 {
		badRequest(w, "top_n", "must be a non-negative integer")
		return
	}

	view, err := s.stats.VariableStatistics(r.Context(),
		core.DatasetID(chi.URLParam(r, "id")),
		core.VariableCode(chi.URLParam(r, "code")),
		topN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.filters.CreateSession(r.Context(), core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}
