package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/rules"
)

type fakeRules struct {
	titles map[string]string
}

func (f *fakeRules) Ensure(_ context.Context, def rules.Definition) (*entity.Rule, error) {
	return &entity.Rule{RuleID: def.RuleID, Title: def.Title, Severity: def.Severity, CheckKind: def.CheckKind}, nil
}

func (f *fakeRules) Get(_ context.Context, ruleID string) (*entity.Rule, error) {
	title, ok := f.titles[ruleID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &entity.Rule{RuleID: ruleID, Title: title}, nil
}

func TestExportRunXLSX(t *testing.T) {
	detected := "100"
	expected := "180.0"
	run := &entity.Run{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Violations: []entity.Violation{
			{RuleID: "RULE_001", ExpectedValue: &expected, Suggestion: "Ensure GSTIN is clearly visible on the source document", Severity: constants.SeverityHigh},
			{RuleID: "RULE_004", DetectedValue: &detected, ExpectedValue: &expected, Suggestion: "Recalculate tax amount for item 1", Severity: constants.SeverityHigh},
		},
	}
	svc := NewService(&fakeRules{titles: map[string]string{
		"RULE_001": "GSTIN Missing",
		"RULE_004": "Tax Amount Mismatch",
	}}, nil)

	raw, err := svc.ExportRunXLSX(context.Background(), run)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Violations")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Rule ID", "Rule Title", "Severity", "Detected Value", "Expected Value", "Suggestion"}, rows[0])
	assert.Equal(t, "RULE_001", rows[1][0])
	assert.Equal(t, "GSTIN Missing", rows[1][1])
	assert.Equal(t, "RULE_004", rows[2][0])
	assert.Equal(t, "Tax Amount Mismatch", rows[2][1])
	assert.Equal(t, "100", rows[2][3])
	assert.Equal(t, "180.0", rows[2][4])
}

func TestExportRunXLSX_EmptyRun(t *testing.T) {
	svc := NewService(&fakeRules{}, nil)
	run := &entity.Run{ID: uuid.New()}

	raw, err := svc.ExportRunXLSX(context.Background(), run)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Violations")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestFilename(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, "compliance-run-7d444840-9dc0-11d1-b245-5ffdce74fad2.xlsx", Filename(id))
}
