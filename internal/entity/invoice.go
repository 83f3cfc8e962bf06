package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
)

// Invoice represents an uploaded invoice document for data transfer between layers.
type Invoice struct {
	ID         uuid.UUID               `json:"id"`
	UserID     uuid.UUID               `json:"user_id"`
	Filename   string                  `json:"filename"`
	StoredPath string                  `json:"stored_path"`
	HashHex    string                  `json:"content_hash_hex"`
	Status     constants.InvoiceStatus `json:"status"`
	UploadedAt time.Time               `json:"uploaded_at"`
}

// LineItem is one extracted invoice line. Numeric fields are kept as raw
// tokens (json.Number): extraction is best-effort and downstream rule checks
// must be able to see, and skip, values that do not parse.
type LineItem struct {
	Description  string      `json:"description"`
	HSNCode      string      `json:"hsn_code"`
	TaxableValue json.Number `json:"taxable_value"`
	TaxRate      json.Number `json:"tax_rate"`
	TaxAmount    json.Number `json:"tax_amount"`
}

// InvoiceFields is the structured record recovered from an invoice's text.
// Scalar fields are nil when the extractor found no candidate; LineItems is
// always non-nil (possibly empty).
type InvoiceFields struct {
	InvoiceNumber *string    `json:"invoice_number"`
	GSTIN         *string    `json:"gstin"`
	Date          *string    `json:"date"`
	TotalAmount   string     `json:"total_amount"`
	LineItems     []LineItem `json:"line_items"`
}

// InvoiceData is the persisted extraction output for one invoice. It is
// written once per ingestion; re-ingesting replaces it with a fresh record.
type InvoiceData struct {
	ID                uuid.UUID     `json:"id"`
	InvoiceID         uuid.UUID     `json:"invoice_id"`
	ExtractedText     string        `json:"extracted_text"`
	Fields            InvoiceFields `json:"fields"`
	ExtractionQuality float32       `json:"extraction_quality"`
	CreatedAt         time.Time     `json:"created_at"`
}
