package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/internal/audit"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// auditEvent builds the audit record for one handled request.
func auditEvent(r *http.Request, userID uuid.UUID, runID *uuid.UUID, name string, payload, response any) audit.Event {
	uid := userID
	return audit.Event{
		UserID:   &uid,
		RunID:    runID,
		Endpoint: r.Method + " " + r.URL.Path,
		Name:     name,
		Payload:  payload,
		Response: response,
	}
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathUUID(w, "runID", chi.URLParam(r, "runID"))
	if !ok {
		return
	}
	logs, err := s.auditLogs.ListByRun(r.Context(), runID)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	if logs == nil {
		logs = []*entity.AuditLog{}
	}
	common.WriteJSON(w, http.StatusOK, logs)
}
