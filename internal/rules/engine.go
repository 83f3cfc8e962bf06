package rules

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// Fixed rule definitions, registered lazily on first firing.
var (
	RuleGSTINPresence = Definition{
		RuleID:    "RULE_001",
		Title:     "GSTIN Missing",
		Severity:  constants.SeverityHigh,
		CheckKind: constants.CheckKindPresence,
	}
	RuleGSTINFormat = Definition{
		RuleID:    "RULE_002",
		Title:     "Invalid GSTIN Format",
		Severity:  constants.SeverityHigh,
		CheckKind: constants.CheckKindFormat,
	}
	RuleHSNPresence = Definition{
		RuleID:    "RULE_003",
		Title:     "HSN Code Missing",
		Severity:  constants.SeverityMedium,
		CheckKind: constants.CheckKindPresence,
	}
	RuleTaxMismatch = Definition{
		RuleID:    "RULE_004",
		Title:     "Tax Amount Mismatch",
		Severity:  constants.SeverityHigh,
		CheckKind: constants.CheckKindCalculation,
	}
)

// gstinPattern is the full-value GSTIN shape: 2 digits, 5 letters, 4 digits,
// 1 letter, 1 entity code, literal Z, 1 check character. Case-sensitive.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)

// ValidGSTIN reports whether v matches the fixed 15-character GSTIN shape.
func ValidGSTIN(v string) bool {
	return gstinPattern.MatchString(v)
}

// DefaultTaxTolerance is the absolute tax-mismatch tolerance in whole
// currency units. Carried over from the rule catalog as-is; there is no
// stated minor-unit rationale, so it stays a configurable constant.
var DefaultTaxTolerance = decimal.NewFromInt(1)

// Engine evaluates one structured invoice record against the fixed rule set.
// Evaluation is pure regex/arithmetic over an immutable snapshot: it shares
// no state across runs and never fails a run. However malformed the input,
// the result is a (possibly empty) violation list.
type Engine struct {
	catalog   Catalog
	tolerance decimal.Decimal
	logger    *slog.Logger
}

type EngineOption func(*Engine)

// WithTaxTolerance overrides the RULE_004 absolute tolerance.
func WithTaxTolerance(d decimal.Decimal) EngineOption {
	return func(e *Engine) { e.tolerance = d }
}

func NewEngine(catalog Catalog, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{catalog: catalog, tolerance: DefaultTaxTolerance, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs the fixed rule set in order against fields and returns the
// violations for runID. The only error source is catalog registration
// (storage); rule checks themselves cannot fail.
func (e *Engine) Evaluate(ctx context.Context, runID uuid.UUID, fields entity.InvoiceFields) ([]entity.Violation, error) {
	violations := make([]entity.Violation, 0, 4)

	// RULE_001 / RULE_002: GSTIN presence gates the format check.
	if fields.GSTIN == nil || *fields.GSTIN == "" {
		v, err := e.violation(ctx, runID, RuleGSTINPresence,
			nil, strptr("Present"), "Ensure GSTIN is clearly visible on the source document")
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	} else if !ValidGSTIN(*fields.GSTIN) {
		v, err := e.violation(ctx, runID, RuleGSTINFormat,
			fields.GSTIN, strptr("Valid format"), "Check for typos in GSTIN")
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	// RULE_003: HSN code presence, reported once per invoice.
	hsnMissing := false
	for _, item := range fields.LineItems {
		if item.HSNCode == "" {
			hsnMissing = true
			break
		}
	}
	if hsnMissing {
		v, err := e.violation(ctx, runID, RuleHSNPresence,
			strptr("Missing"), strptr("Present"), "Add HSN codes for all items")
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}

	// RULE_004: per-item tax consistency. Items with non-numeric or missing
	// inputs are skipped silently; partial extraction is expected.
	for idx, item := range fields.LineItems {
		taxable, err1 := decimal.NewFromString(item.TaxableValue.String())
		rate, err2 := decimal.NewFromString(item.TaxRate.String())
		taxAmt, err3 := decimal.NewFromString(item.TaxAmount.String())
		if err1 != nil || err2 != nil || err3 != nil {
			e.logger.Debug("skipping tax check for non-numeric line item", "run_id", runID, "item", idx+1)
			continue
		}

		expected := taxable.Mul(rate).Div(decimal.NewFromInt(100))
		if expected.Sub(taxAmt).Abs().GreaterThan(e.tolerance) {
			v, err := e.violation(ctx, runID, RuleTaxMismatch,
				strptr(item.TaxAmount.String()),
				strptr(expected.StringFixed(1)),
				fmt.Sprintf("Recalculate tax amount for item %d", idx+1))
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}

	e.logger.Info("compliance evaluation finished", "run_id", runID, "violations", len(violations))
	return violations, nil
}

// violation registers the rule (idempotent) and builds the violation row.
// Severity is copied from the catalog entry at evaluation time.
func (e *Engine) violation(ctx context.Context, runID uuid.UUID, def Definition, detected, expected *string, suggestion string) (entity.Violation, error) {
	rule, err := e.catalog.Ensure(ctx, def)
	if err != nil {
		return entity.Violation{}, fmt.Errorf("ensure rule %s: %w", def.RuleID, err)
	}
	return entity.Violation{
		ID:            uuid.New(),
		RunID:         runID,
		RuleID:        rule.RuleID,
		DetectedValue: detected,
		ExpectedValue: expected,
		Suggestion:    suggestion,
		Severity:      rule.Severity,
	}, nil
}

func strptr(s string) *string {
	return &s
}
