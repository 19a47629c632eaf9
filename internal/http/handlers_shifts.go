package http

import (
	"net/http"
	"strconv"
	"strings"

	"payflow/internal/core"
	"payflow/internal/log"
	"payflow/internal/services"
	"payflow/internal/storage"
)

// shiftFilter reads the optional from/to/job_id query parameters.
func shiftFilter(r *http.Request) (storage.ShiftFilter, error) {
	var f storage.ShiftFilter
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.From = &d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.To = &d
	}
	if v := strings.TrimSpace(q.Get("job_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, NewAppError("bad_request", "invalid job_id", http.StatusBadRequest, err)
		}
		f.JobID = &id
	}
	return f, nil
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	f, err := shiftFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shifts, err := s.svc.Shifts.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var req services.ShiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	shift, err := s.svc.Shifts.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Shift created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithShift(shift.ID, shift.Date.String(), shift.TotalWage, shift.Currency).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, shift)
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Shifts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleCalculateWage(w http.ResponseWriter, r *http.Request) {
	var req services.ShiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Shifts.Calculate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWageConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Shifts.Config())
}
