package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// maxUploadBytes caps multipart invoice uploads at 20 MiB.
const maxUploadBytes = 20 << 20

func (s *Server) handleUploadInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	inv, err := s.ingest.Upload(r.Context(), userID, header.Filename, file)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}

	s.audit.Log(r.Context(), auditEvent(r, userID, nil, "invoice.uploaded",
		map[string]string{"filename": inv.Filename, "content_hash_hex": inv.HashHex}, inv))
	common.WriteJSON(w, http.StatusAccepted, inv)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := s.ingest.List(r.Context(), userID, limit, offset)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	if list == nil {
		list = []*entity.Invoice{}
	}
	common.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(w, "invoiceID", chi.URLParam(r, "invoiceID"))
	if !ok {
		return
	}
	inv, err := s.ingest.Get(r.Context(), userID, invoiceID)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, inv)
}

func (s *Server) handleGetInvoiceData(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(w, "invoiceID", chi.URLParam(r, "invoiceID"))
	if !ok {
		return
	}
	data, err := s.ingest.GetData(r.Context(), userID, invoiceID)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, data)
}
