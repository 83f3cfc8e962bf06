package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/extract"
	"github.com/taxmitra/compliance-copilot/internal/repository"
)

// ExtractionQuality is the fixed quality score recorded with every heuristic
// extraction. A learned extractor would report a real model confidence here.
const ExtractionQuality float32 = 0.85

// Processor coordinates text extraction then field extraction for one
// invoice, persisting the structured record and the terminal status.
//
// Not reentrant-safe for concurrent calls on the same invoice id; the
// dispatch layer guarantees per-invoice exclusivity. Retries are also the
// dispatcher's concern: a failed ingest leaves the invoice in the failed
// state until it is re-enqueued.
type Processor struct {
	Logger   *slog.Logger
	Invoices repository.InvoiceRepository
	Text     extract.TextExtractor
	Fields   extract.FieldExtractor
}

func NewProcessor(logger *slog.Logger, invoices repository.InvoiceRepository, text extract.TextExtractor, fields extract.FieldExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Invoices: invoices, Text: text, Fields: fields}
}

// ProcessInvoice runs the ingestion sequence for invoiceID:
// status -> processing, extract text, extract fields, persist InvoiceData,
// status -> completed. Any stage failure marks the invoice failed and
// persists no structured record.
func (p *Processor) ProcessInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	inv, err := p.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		p.Logger.Error("pipeline.lookup.failed", "invoice_id", invoiceID, "err", err)
		return fmt.Errorf("get invoice: %w", err)
	}

	if err := p.Invoices.SetStatus(ctx, invoiceID, constants.InvoiceStatusProcessing); err != nil {
		return fmt.Errorf("set processing: %w", err)
	}

	data, err := p.runStages(ctx, inv)
	if err != nil {
		p.Logger.Error("pipeline.failed", "invoice_id", invoiceID, "err", err)
		if serr := p.Invoices.SetStatus(ctx, invoiceID, constants.InvoiceStatusFailed); serr != nil {
			p.Logger.Error("failed to mark invoice failed", "invoice_id", invoiceID, "err", serr)
		}
		return err
	}

	if err := p.Invoices.SetStatus(ctx, invoiceID, constants.InvoiceStatusCompleted); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	p.Logger.Info("pipeline.ok",
		"invoice_id", invoiceID,
		"text_bytes", len(data.ExtractedText),
		"line_items", len(data.Fields.LineItems),
	)
	return nil
}

func (p *Processor) runStages(ctx context.Context, inv *entity.Invoice) (*entity.InvoiceData, error) {
	// Stage 1: text. An unreadable document is empty text, not a failure.
	res, err := p.Text.Extract(ctx, inv.StoredPath)
	if err != nil {
		return nil, fmt.Errorf("text extract: %w", err)
	}
	if len(res.Warnings) > 0 {
		p.Logger.Warn("text extraction recovered no content", "invoice_id", inv.ID, "warnings", res.Warnings)
	}

	// Stage 2: fields.
	fields, err := p.Fields.ExtractFields(ctx, res.Text)
	if err != nil {
		return nil, fmt.Errorf("field extract: %w", err)
	}
	if err := extract.ValidateFields(fields); err != nil {
		return nil, fmt.Errorf("extraction payload rejected: %w", err)
	}

	data := &entity.InvoiceData{
		ID:                uuid.New(),
		InvoiceID:         inv.ID,
		ExtractedText:     res.Text,
		Fields:            fields,
		ExtractionQuality: ExtractionQuality,
		CreatedAt:         time.Now().UTC(),
	}
	if err := p.Invoices.UpsertData(ctx, data); err != nil {
		return nil, fmt.Errorf("persist invoice data: %w", err)
	}
	return data, nil
}
