package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taxmitra/compliance-copilot/internal/async"
	"github.com/taxmitra/compliance-copilot/internal/audit"
	"github.com/taxmitra/compliance-copilot/internal/auth"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/compliance"
	"github.com/taxmitra/compliance-copilot/internal/export"
	"github.com/taxmitra/compliance-copilot/internal/extract"
	"github.com/taxmitra/compliance-copilot/internal/ingest"
	"github.com/taxmitra/compliance-copilot/internal/pipeline"
	repo "github.com/taxmitra/compliance-copilot/internal/repository"
	"github.com/taxmitra/compliance-copilot/internal/rules"
	"github.com/taxmitra/compliance-copilot/internal/server"
)

func main() {
	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time and level attributes, keep message and other variables
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repo.Migrate(ctx, pool, logger); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	usersRepo := repo.NewUserRepository(pool, logger)
	invoicesRepo := repo.NewInvoiceRepository(pool, logger)
	rulesRepo := repo.NewRuleRepository(pool, logger)
	runsRepo := repo.NewRunRepository(pool, logger)
	auditRepo := repo.NewAuditRepository(pool, logger)

	// Ingestion pipeline: PDF text, then heuristic field extraction.
	textExtractor := extract.NewPDFTextExtractor(logger)
	fieldExtractor := extract.NewHeuristicFieldExtractor(logger)
	processor := pipeline.NewProcessor(logger, invoicesRepo, textExtractor, fieldExtractor)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	engine := rules.NewEngine(rulesRepo, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	ingestSvc := ingest.NewService(invoicesRepo, queue, cfg.Server.UploadDir, logger)
	complianceSvc := compliance.NewService(invoicesRepo, runsRepo, engine, logger)
	exportSvc := export.NewService(rulesRepo, logger)
	auditSvc := audit.NewService(auditRepo, logger)

	srv := server.New(tokens, usersRepo, auditRepo, ingestSvc, complianceSvc, exportSvc, auditSvc, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("complianced listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Stop accepting uploads before draining the queue so no handler is
	// still enqueueing while the queue closes.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
