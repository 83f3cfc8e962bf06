package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taxmitra/compliance-copilot/internal/audit"
	"github.com/taxmitra/compliance-copilot/internal/auth"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/compliance"
	"github.com/taxmitra/compliance-copilot/internal/export"
	"github.com/taxmitra/compliance-copilot/internal/ingest"
	"github.com/taxmitra/compliance-copilot/internal/repository"
)

// Server bundles the HTTP handlers and their dependencies.
type Server struct {
	tokens     *auth.TokenManager
	users      repository.UserRepository
	auditLogs  repository.AuditRepository
	ingest     *ingest.Service
	compliance *compliance.Service
	export     *export.Service
	audit      *audit.Service
	logger     *slog.Logger
}

func New(
	tokens *auth.TokenManager,
	users repository.UserRepository,
	auditLogs repository.AuditRepository,
	ingestSvc *ingest.Service,
	complianceSvc *compliance.Service,
	exportSvc *export.Service,
	auditSvc *audit.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tokens:     tokens,
		users:      users,
		auditLogs:  auditLogs,
		ingest:     ingestSvc,
		compliance: complianceSvc,
		export:     exportSvc,
		audit:      auditSvc,
		logger:     logger,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/invoices", s.handleUploadInvoice)
			r.Get("/invoices", s.handleListInvoices)
			r.Get("/invoices/{invoiceID}", s.handleGetInvoice)
			r.Get("/invoices/{invoiceID}/data", s.handleGetInvoiceData)

			r.Post("/compliance/invoices/{invoiceID}/runs", s.handleRunChecks)
			r.Get("/compliance/runs/{runID}", s.handleGetRun)
			r.Get("/compliance/runs/{runID}/export", s.handleExportRun)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/audit/runs/{runID}", s.handleListAudit)
			})
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
