package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"payflow/internal/core"
	"payflow/internal/export"
	"payflow/internal/log"
	"payflow/internal/storage"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.ParseReportFilter(q.Get("start"), q.Get("end"), q.Get("job_ids"))
	report, err := s.svc.Reports.Report(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.exportShifts(w, r, contentTypeCSV, "payflow_shifts.csv", export.WriteShiftsCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.exportShifts(w, r, contentTypeXLSX, "payflow_shifts.xlsx", export.WriteShiftsXLSX)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.exportShifts(w, r, contentTypePDF, "payflow_shifts.pdf", export.WriteShiftsPDF)
}

// exportShifts renders the full shift history into a buffer before sending
// so a render failure can still produce an error response.
func (s *Server) exportShifts(w http.ResponseWriter, r *http.Request, contentType, filename string,
	render func(io.Writer, []core.Shift) error) {
	shifts, err := s.svc.Shifts.List(r.Context(), storage.ShiftFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, shifts); err != nil {
		writeError(w, r, fmt.Errorf("export %s: %w", filename, err))
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Shifts exported",
		log.FieldOperation, log.OpExport,
		"file", filename,
		"rows", len(shifts))
	writeAttachment(w, contentType, filename, buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
