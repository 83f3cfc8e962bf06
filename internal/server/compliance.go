package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/export"
)

func (s *Server) handleRunChecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(w, "invoiceID", chi.URLParam(r, "invoiceID"))
	if !ok {
		return
	}

	run, err := s.compliance.RunChecks(r.Context(), userID, invoiceID)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}

	s.audit.Log(r.Context(), auditEvent(r, userID, &run.ID, "compliance.run",
		map[string]string{"invoice_id": invoiceID.String()}, run))
	common.WriteJSON(w, http.StatusCreated, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	runID, ok := pathUUID(w, "runID", chi.URLParam(r, "runID"))
	if !ok {
		return
	}

	run, err := s.compliance.GetRun(r.Context(), userID, runID)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, run)
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	runID, ok := pathUUID(w, "runID", chi.URLParam(r, "runID"))
	if !ok {
		return
	}

	run, err := s.compliance.GetRun(r.Context(), userID, runID)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	xlsx, err := s.export.ExportRunXLSX(r.Context(), run)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(runID)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
