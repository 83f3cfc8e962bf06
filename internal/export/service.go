package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for
// compliance run reports.
type Service struct {
	rules  repository.RuleRepository
	logger *slog.Logger
}

func NewService(rules repository.RuleRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{rules: rules, logger: logger}
}

// ExportRunXLSX returns an XLSX workbook (as bytes) listing the run's
// violations in evaluation order.
func (s *Service) ExportRunXLSX(ctx context.Context, run *entity.Run) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Violations"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Rule ID",
		"Rule Title",
		"Severity",
		"Detected Value",
		"Expected Value",
		"Suggestion",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	titles := make(map[string]string)
	row := 2
	for _, v := range run.Violations {
		title, ok := titles[v.RuleID]
		if !ok {
			if rule, err := s.rules.Get(ctx, v.RuleID); err == nil {
				title = rule.Title
			}
			titles[v.RuleID] = title
		}

		write := func(col int, val any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, val)
		}

		write(1, v.RuleID)
		write(2, title)
		write(3, string(v.Severity))
		write(4, deref(v.DetectedValue))
		write(5, deref(v.ExpectedValue))
		write(6, v.Suggestion)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "C", 10)
	_ = f.SetColWidth(sheet, "D", "E", 18)
	_ = f.SetColWidth(sheet, "F", "F", 52)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", run.ID.String(),
		"rows", len(run.Violations),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Filename suggests a download name for a run report.
func Filename(runID uuid.UUID) string {
	return fmt.Sprintf("compliance-run-%s.xlsx", runID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
