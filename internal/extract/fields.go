package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// Deterministic reverse-computation placeholders standing in for real
// line-item recognition. Kept as named constants on purpose: they are the
// only "mock model" state a learned extractor would replace.
const (
	MockLineItemDescription = "Service Charge"
	MockLineItemHSNCode     = "998311"
)

var (
	mockTaxableShare = decimal.RequireFromString("0.82")
	mockTaxShare     = decimal.RequireFromString("0.18")
	mockTaxRate      = json.Number("18.0")
)

// MissingTotalSentinel is reported when no total amount was recovered.
// Callers must treat it as "no amount", not a genuine zero total.
const MissingTotalSentinel = "0.00"

// Labels are matched case-insensitively; the GSTIN value capture stays
// case-sensitive so lowercase identifiers fail the format check downstream.
var (
	reInvoiceNumber = regexp.MustCompile(`(?i)Invoice\s*No\.?\s*[:\-]?\s*([A-Z0-9/-]+)`)
	reGSTIN         = regexp.MustCompile(`(?i:GSTIN)\s*[:\-]?\s*([0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z])`)
	reDate          = regexp.MustCompile(`(?i)Date\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`)
	reTotal         = regexp.MustCompile(`(?i)Total\s*[:\-]?\s*([\d,]+\.?\d{0,2})`)
)

// HeuristicFieldExtractor recovers invoice fields with fixed patterns.
// First match wins for every field; no reconciliation of multiple candidates.
type HeuristicFieldExtractor struct {
	logger *slog.Logger
}

func NewHeuristicFieldExtractor(logger *slog.Logger) *HeuristicFieldExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicFieldExtractor{logger: logger}
}

func (x *HeuristicFieldExtractor) ExtractFields(_ context.Context, text string) (entity.InvoiceFields, error) {
	fields := entity.InvoiceFields{
		InvoiceNumber: firstMatch(reInvoiceNumber, text),
		GSTIN:         firstMatch(reGSTIN, text),
		Date:          firstMatch(reDate, text),
		TotalAmount:   MissingTotalSentinel,
		LineItems:     []entity.LineItem{},
	}

	if total, ok := extractTotal(text); ok {
		fields.TotalAmount = total.StringFixed(2)
		fields.LineItems = append(fields.LineItems, entity.LineItem{
			Description:  MockLineItemDescription,
			HSNCode:      MockLineItemHSNCode,
			TaxableValue: json.Number(total.Mul(mockTaxableShare).StringFixed(2)),
			TaxRate:      mockTaxRate,
			TaxAmount:    json.Number(total.Mul(mockTaxShare).StringFixed(2)),
		})
	}

	x.logger.Debug("fields extracted",
		"invoice_number", fields.InvoiceNumber != nil,
		"gstin", fields.GSTIN != nil,
		"date", fields.Date != nil,
		"total", fields.TotalAmount,
		"line_items", len(fields.LineItems),
	)
	return fields, nil
}

func firstMatch(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := m[1]
	return &v
}

// extractTotal returns the first "Total"-labelled amount with thousands
// separators stripped. ok is false when no amount was recovered.
func extractTotal(text string) (decimal.Decimal, bool) {
	m := reTotal.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
