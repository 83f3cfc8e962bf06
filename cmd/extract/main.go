package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/taxmitra/compliance-copilot/internal/extract"
)

// Runs text and field extraction on a local PDF and prints the structured
// record as JSON. Useful for tuning the heuristics without a database.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extract <invoice.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	textExtractor := extract.NewPDFTextExtractor(logger)
	fieldExtractor := extract.NewHeuristicFieldExtractor(logger)

	start := time.Now()
	res, err := textExtractor.Extract(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}
	fields, err := fieldExtractor.ExtractFields(ctx, res.Text)
	if err != nil {
		logger.Error("field extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("extraction OK",
		"path", path,
		"pages", res.Pages,
		"text_bytes", len(res.Text),
		"warnings", res.Warnings,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		logger.Error("encode fields", "error", err)
		os.Exit(1)
	}
}
