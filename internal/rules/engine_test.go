package rules

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

func strp(s string) *string { return &s }

func item(hsn, taxable, rate, tax string) entity.LineItem {
	return entity.LineItem{
		Description:  "Service Charge",
		HSNCode:      hsn,
		TaxableValue: json.Number(taxable),
		TaxRate:      json.Number(rate),
		TaxAmount:    json.Number(tax),
	}
}

func evaluate(t *testing.T, fields entity.InvoiceFields) []entity.Violation {
	t.Helper()
	e := NewEngine(NewMemoryCatalog(), nil)
	vs, err := e.Evaluate(context.Background(), uuid.New(), fields)
	require.NoError(t, err)
	return vs
}

func ruleIDs(vs []entity.Violation) []string {
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.RuleID)
	}
	return ids
}

func TestEvaluate_CleanInvoice(t *testing.T) {
	fields := entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "1000.00",
		LineItems:   []entity.LineItem{item("998311", "820.00", "18.0", "147.60")},
	}
	vs := evaluate(t, fields)
	assert.Empty(t, vs)
}

func TestEvaluate_MissingGSTIN(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{TotalAmount: "0.00", LineItems: []entity.LineItem{}})

	require.Len(t, vs, 1)
	v := vs[0]
	assert.Equal(t, "RULE_001", v.RuleID)
	assert.Nil(t, v.DetectedValue)
	require.NotNil(t, v.ExpectedValue)
	assert.Equal(t, "Present", *v.ExpectedValue)
	assert.Equal(t, "Ensure GSTIN is clearly visible on the source document", v.Suggestion)
	assert.Equal(t, constants.SeverityHigh, v.Severity)
}

func TestEvaluate_EmptyGSTINTreatedAsMissing(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp(""),
		TotalAmount: "0.00",
		LineItems:   []entity.LineItem{},
	})
	assert.Equal(t, []string{"RULE_001"}, ruleIDs(vs))
}

func TestEvaluate_InvalidGSTINFormat(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp("29abcde1234f1z5"),
		TotalAmount: "0.00",
		LineItems:   []entity.LineItem{},
	})

	// Presence gates format: only RULE_002 fires, never both.
	require.Equal(t, []string{"RULE_002"}, ruleIDs(vs))
	v := vs[0]
	require.NotNil(t, v.DetectedValue)
	assert.Equal(t, "29abcde1234f1z5", *v.DetectedValue)
	require.NotNil(t, v.ExpectedValue)
	assert.Equal(t, "Valid format", *v.ExpectedValue)
	assert.Equal(t, "Check for typos in GSTIN", v.Suggestion)
}

func TestValidGSTIN(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"29ABCDE1234F1Z5", true},
		{"07AAACR5055K1ZD", true},
		{"29ABCDE1234F1Y5", false}, // 14th char must be literal Z
		{"29ABCDE1234F0Z5", false}, // entity code 0 not allowed
		{"29ABCDE1234F1Z", false},  // too short
		{"29ABCDE1234F1Z55", false},
		{"29abcde1234f1z5", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidGSTIN(tt.value), tt.value)
	}
}

func TestEvaluate_HSNMissingReportedOnce(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "200.00",
		LineItems: []entity.LineItem{
			item("", "82.00", "18.0", "14.76"),
			item("", "82.00", "18.0", "14.76"),
		},
	})

	require.Equal(t, []string{"RULE_003"}, ruleIDs(vs))
	v := vs[0]
	require.NotNil(t, v.DetectedValue)
	assert.Equal(t, "Missing", *v.DetectedValue)
	require.NotNil(t, v.ExpectedValue)
	assert.Equal(t, "Present", *v.ExpectedValue)
	assert.Equal(t, "Add HSN codes for all items", v.Suggestion)
	assert.Equal(t, constants.SeverityMedium, v.Severity)
}

func TestEvaluate_TaxMismatch(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "1000.00",
		LineItems:   []entity.LineItem{item("998311", "1000", "18.0", "100")},
	})

	require.Equal(t, []string{"RULE_004"}, ruleIDs(vs))
	v := vs[0]
	require.NotNil(t, v.DetectedValue)
	assert.Equal(t, "100", *v.DetectedValue)
	require.NotNil(t, v.ExpectedValue)
	assert.Equal(t, "180.0", *v.ExpectedValue)
	assert.Equal(t, "Recalculate tax amount for item 1", v.Suggestion)
}

func TestEvaluate_TaxToleranceBoundary(t *testing.T) {
	// |expected - actual| == 1.0 is inside tolerance; just above it fires.
	within := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "1000.00",
		LineItems:   []entity.LineItem{item("998311", "1000", "18.0", "179.00")},
	})
	assert.Empty(t, within)

	over := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "1000.00",
		LineItems:   []entity.LineItem{item("998311", "1000", "18.0", "178.99")},
	})
	assert.Equal(t, []string{"RULE_004"}, ruleIDs(over))
}

func TestEvaluate_NonNumericLineItemSkipped(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "1000.00",
		LineItems: []entity.LineItem{
			item("998311", "n/a", "18.0", "100"),
			item("998311", "1000", "18.0", "100"),
		},
	})

	// Item 1 is skipped; only item 2 is checked.
	require.Equal(t, []string{"RULE_004"}, ruleIDs(vs))
	assert.Equal(t, "Recalculate tax amount for item 2", vs[0].Suggestion)
}

func TestEvaluate_MultipleViolationsInRuleOrder(t *testing.T) {
	vs := evaluate(t, entity.InvoiceFields{
		TotalAmount: "1000.00",
		LineItems:   []entity.LineItem{item("", "1000", "18.0", "100")},
	})
	assert.Equal(t, []string{"RULE_001", "RULE_003", "RULE_004"}, ruleIDs(vs))
}

func TestEvaluate_CustomTolerance(t *testing.T) {
	catalog := NewMemoryCatalog()
	e := NewEngine(catalog, nil, WithTaxTolerance(decimal.NewFromInt(100)))

	vs, err := e.Evaluate(context.Background(), uuid.New(), entity.InvoiceFields{
		GSTIN:       strp("29ABCDE1234F1Z5"),
		TotalAmount: "1000.00",
		LineItems:   []entity.LineItem{item("998311", "1000", "18.0", "100")},
	})
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestEvaluate_SeverityComesFromCatalog(t *testing.T) {
	catalog := NewMemoryCatalog()
	// Pre-register RULE_001 with a different severity; evaluation must honor
	// the stored entry, not the built-in definition.
	_, err := catalog.Ensure(context.Background(), Definition{
		RuleID:    RuleGSTINPresence.RuleID,
		Title:     RuleGSTINPresence.Title,
		Severity:  constants.SeverityLow,
		CheckKind: RuleGSTINPresence.CheckKind,
	})
	require.NoError(t, err)

	e := NewEngine(catalog, nil)
	vs, err := e.Evaluate(context.Background(), uuid.New(), entity.InvoiceFields{
		TotalAmount: "0.00",
		LineItems:   []entity.LineItem{},
	})
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, constants.SeverityLow, vs[0].Severity)
}
