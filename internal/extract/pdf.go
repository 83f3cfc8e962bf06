package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor reads embedded text from PDF pages. Page texts are joined
// with a newline in document order. Any open/parse failure yields empty text
// with a warning; the ingestion pipeline treats that as "no text recovered".
type PDFTextExtractor struct {
	logger *slog.Logger
}

func NewPDFTextExtractor(logger *slog.Logger) *PDFTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFTextExtractor{logger: logger}
}

func (e *PDFTextExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	res := TextExtractionResult{Method: "pdf-text"}

	text, pages, warnings := e.readPDF(path)
	res.Text = text
	res.Pages = pages
	res.Warnings = warnings
	res.Duration = time.Since(start)

	if len(warnings) > 0 {
		e.logger.Warn("pdf extraction degraded", "path", path, "pages", pages, "warnings", warnings)
	} else {
		e.logger.Debug("pdf extraction ok", "path", path, "pages", pages, "bytes", len(text))
	}
	return res, nil
}

// readPDF isolates the pdf library, which panics on some malformed inputs.
func (e *PDFTextExtractor) readPDF(path string) (text string, pages int, warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			warnings = append(warnings, fmt.Sprintf("pdf parse panic: %v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, []string{fmt.Sprintf("open pdf: %v", err)}
	}
	defer func() {
		_ = f.Close()
	}()

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(content)
	}
	return b.String(), total, warnings
}
