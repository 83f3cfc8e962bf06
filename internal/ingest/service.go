package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/async"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/repository"
)

// Service accepts invoice uploads: it stores the document on disk, records
// the invoice in the uploaded state and queues it for asynchronous ingestion.
type Service struct {
	invoices  repository.InvoiceRepository
	queue     async.Queue
	uploadDir string
	logger    *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, queue async.Queue, uploadDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, queue: queue, uploadDir: uploadDir, logger: logger}
}

// Upload stores the document and enqueues extraction. The caller supplies the
// original filename; only PDF uploads are accepted.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, filename string, content io.Reader) (*entity.Invoice, error) {
	if !constants.AllowedExt(filepath.Ext(filename)) {
		return nil, common.NewAppError("UNSUPPORTED_FILE", "only PDF uploads are supported", common.ErrInvalidInput)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.New()
	storedPath := filepath.Join(s.uploadDir, id.String()+"_"+filepath.Base(filename))

	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(dst, hasher), content)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if written == 0 {
		_ = os.Remove(storedPath)
		return nil, common.NewAppError("EMPTY_FILE", "uploaded file is empty", common.ErrInvalidInput)
	}

	inv := &entity.Invoice{
		ID:         id,
		UserID:     userID,
		Filename:   filepath.Base(filename),
		StoredPath: storedPath,
		HashHex:    hex.EncodeToString(hasher.Sum(nil)),
		Status:     constants.InvoiceStatusUploaded,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("record invoice: %w", err)
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		InvoiceID:   inv.ID,
		SubmittedAt: time.Now().UTC(),
		TraceID:     common.RequestIDFromContext(ctx),
	}); err != nil {
		s.logger.Error("failed to queue invoice", "invoice_id", inv.ID, "error", err)
	}

	s.logger.Info("invoice uploaded", "invoice_id", inv.ID, "user_id", userID, "bytes", written)
	return inv, nil
}

// Get returns an invoice owned by userID.
func (s *Service) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*entity.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, common.ErrNotFound
	}
	return inv, nil
}

// GetData returns the structured record for an invoice owned by userID.
func (s *Service) GetData(ctx context.Context, userID, invoiceID uuid.UUID) (*entity.InvoiceData, error) {
	if _, err := s.Get(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	return s.invoices.GetData(ctx, invoiceID)
}

// List returns the user's invoices, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Invoice, error) {
	return s.invoices.ListByUser(ctx, userID, limit, offset)
}
