package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Invoice, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.InvoiceStatus) error
	// UpsertData persists the extraction output for an invoice, replacing any
	// earlier record for the same invoice id.
	UpsertData(ctx context.Context, data *entity.InvoiceData) error
	// GetData returns common.ErrNotFound when the invoice has not been
	// processed yet.
	GetData(ctx context.Context, invoiceID uuid.UUID) (*entity.InvoiceData, error)
}

type invoiceRepository struct {
	db     DB
	logger *slog.Logger
}

func NewInvoiceRepository(db DB, logger *slog.Logger) InvoiceRepository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO invoices (id, user_id, filename, stored_path, content_hash_hex, status, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.UserID, inv.Filename, inv.StoredPath, inv.HashHex, inv.Status, inv.UploadedAt)
	if err != nil {
		r.logger.Error("failed to create invoice", "invoice_id", inv.ID, "error", err)
		return err
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, filename, stored_path, content_hash_hex, status, uploaded_at
		 FROM invoices WHERE id = $1`, id)
	var inv entity.Invoice
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.Filename, &inv.StoredPath, &inv.HashHex, &inv.Status, &inv.UploadedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, filename, stored_path, content_hash_hex, status, uploaded_at
		 FROM invoices WHERE user_id = $1 ORDER BY uploaded_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		r.logger.Error("failed to list invoices", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Filename, &inv.StoredPath, &inv.HashHex, &inv.Status, &inv.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, &inv)
	}
	return result, rows.Err()
}

func (r *invoiceRepository) SetStatus(ctx context.Context, id uuid.UUID, status constants.InvoiceStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.logger.Error("failed to set invoice status", "invoice_id", id, "status", status, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *invoiceRepository) UpsertData(ctx context.Context, data *entity.InvoiceData) error {
	payload, err := json.Marshal(data.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO invoice_data (id, invoice_id, extracted_text, extracted_json, extraction_quality, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (invoice_id) DO UPDATE SET
		   id = EXCLUDED.id,
		   extracted_text = EXCLUDED.extracted_text,
		   extracted_json = EXCLUDED.extracted_json,
		   extraction_quality = EXCLUDED.extraction_quality,
		   created_at = EXCLUDED.created_at`,
		data.ID, data.InvoiceID, data.ExtractedText, payload, data.ExtractionQuality, data.CreatedAt)
	if err != nil {
		r.logger.Error("failed to upsert invoice data", "invoice_id", data.InvoiceID, "error", err)
		return err
	}
	return nil
}

func (r *invoiceRepository) GetData(ctx context.Context, invoiceID uuid.UUID) (*entity.InvoiceData, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, invoice_id, extracted_text, extracted_json, extraction_quality, created_at
		 FROM invoice_data WHERE invoice_id = $1`, invoiceID)
	var (
		data    entity.InvoiceData
		payload []byte
	)
	if err := row.Scan(&data.ID, &data.InvoiceID, &data.ExtractedText, &payload, &data.ExtractionQuality, &data.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &data.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal extracted fields: %w", err)
	}
	if data.Fields.LineItems == nil {
		data.Fields.LineItems = []entity.LineItem{}
	}
	return &data, nil
}
