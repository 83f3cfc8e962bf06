package extract

import (
	"context"
	"time"

	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// TextExtractor is Stage 1: document file -> text.
//
// Extraction failures are non-fatal: implementations report unreadable or
// unparseable documents as empty text (with warnings), not as errors. A
// returned error means the stage itself broke, not that no text was found.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text"
	Duration time.Duration
	Warnings []string
}

// FieldExtractor is Stage 2: text -> structured invoice fields.
//
// The heuristic implementation is deterministic pattern matching; a learned
// extractor can be swapped in behind the same contract without touching the
// rule engine.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (entity.InvoiceFields, error)
}
