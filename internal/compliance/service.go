package compliance

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/repository"
	"github.com/taxmitra/compliance-copilot/internal/rules"
)

// Service drives one compliance run end to end: create the run in the
// running state, evaluate the invoice's structured record, persist the
// violations together, then mark the run completed. Evaluation itself never
// fails a run; only storage errors surface.
type Service struct {
	invoices repository.InvoiceRepository
	runs     repository.RunRepository
	engine   *rules.Engine
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, runs repository.RunRepository, engine *rules.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, runs: runs, engine: engine, logger: logger}
}

// RunChecks evaluates invoiceID for userID. The invoice must already have a
// structured record; without one the request is rejected before any run is
// created.
func (s *Service) RunChecks(ctx context.Context, userID, invoiceID uuid.UUID) (*entity.Run, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, common.ErrNotFound
	}

	data, err := s.invoices.GetData(ctx, invoiceID)
	if err != nil {
		if err == common.ErrNotFound {
			return nil, common.NewAppError("NOT_PROCESSED", "invoice not processed yet, wait for ingestion", common.ErrPrecondition)
		}
		return nil, err
	}

	run := &entity.Run{
		ID:        uuid.New(),
		UserID:    userID,
		InvoiceID: invoiceID,
		Status:    constants.RunStatusRunning,
		StartTS:   time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	s.logger.Info("compliance run started", "run_id", run.ID, "invoice_id", invoiceID)

	violations, err := s.engine.Evaluate(ctx, run.ID, data.Fields)
	if err != nil {
		return nil, fmt.Errorf("evaluate run %s: %w", run.ID, err)
	}
	if err := s.runs.AddViolations(ctx, run.ID, violations); err != nil {
		return nil, fmt.Errorf("persist violations: %w", err)
	}
	if err := s.runs.Complete(ctx, run.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("complete run: %w", err)
	}

	return s.runs.GetByID(ctx, run.ID)
}

// GetRun returns a run owned by userID, violations included.
func (s *Service) GetRun(ctx context.Context, userID, runID uuid.UUID) (*entity.Run, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.UserID != userID {
		return nil, common.ErrNotFound
	}
	return run, nil
}
