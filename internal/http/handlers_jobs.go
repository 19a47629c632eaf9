package http

import (
	"net/http"

	"payflow/internal/core"
)

type jobRequest struct {
	Name       string  `json:"name" validate:"required,max=150"`
	HourlyWage float64 `json:"hourly_wage" validate:"gte=0"`
	Currency   string  `json:"currency" validate:"max=10"`
	Color      string  `json:"color" validate:"omitempty,hexcolor"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.Jobs.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := s.svc.Jobs.Create(r.Context(), core.Job{
		Name:       req.Name,
		HourlyWage: req.HourlyWage,
		Currency:   req.Currency,
		Color:      req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Jobs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func writeDeleted(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
