package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	// GetByID loads a run with its violations in evaluation order.
	GetByID(ctx context.Context, runID uuid.UUID) (*entity.Run, error)
	AddViolations(ctx context.Context, runID uuid.UUID, violations []entity.Violation) error
	// Complete transitions a running run to its terminal completed state.
	// A run that is not running is left untouched.
	Complete(ctx context.Context, runID uuid.UUID, endTS time.Time) error
	// AddTokenCost accumulates resource usage; the counter never decreases.
	AddTokenCost(ctx context.Context, runID uuid.UUID, delta float64) error
}

type runRepository struct {
	db     DB
	logger *slog.Logger
}

func NewRunRepository(db DB, logger *slog.Logger) RunRepository {
	return &runRepository{db: db, logger: logger}
}

func (r *runRepository) Create(ctx context.Context, run *entity.Run) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO runs (run_id, user_id, invoice_id, status, start_ts, token_cost)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.UserID, run.InvoiceID, run.Status, run.StartTS, run.TokenCost)
	if err != nil {
		r.logger.Error("failed to create run", "run_id", run.ID, "error", err)
		return err
	}
	return nil
}

func (r *runRepository) GetByID(ctx context.Context, runID uuid.UUID) (*entity.Run, error) {
	row := r.db.QueryRow(ctx,
		`SELECT run_id, user_id, invoice_id, status, start_ts, end_ts, token_cost
		 FROM runs WHERE run_id = $1`, runID)
	var run entity.Run
	if err := row.Scan(&run.ID, &run.UserID, &run.InvoiceID, &run.Status, &run.StartTS, &run.EndTS, &run.TokenCost); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, rule_id, detected_value, expected_value, suggestion, severity
		 FROM violations WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		r.logger.Error("failed to load violations", "run_id", runID, "error", err)
		return nil, err
	}
	defer rows.Close()

	run.Violations = make([]entity.Violation, 0)
	for rows.Next() {
		var v entity.Violation
		if err := rows.Scan(&v.ID, &v.RunID, &v.RuleID, &v.DetectedValue, &v.ExpectedValue, &v.Suggestion, &v.Severity); err != nil {
			return nil, err
		}
		run.Violations = append(run.Violations, v)
	}
	return &run, rows.Err()
}

func (r *runRepository) AddViolations(ctx context.Context, runID uuid.UUID, violations []entity.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for i, v := range violations {
		if _, err := tx.Exec(ctx,
			`INSERT INTO violations (id, run_id, rule_id, detected_value, expected_value, suggestion, severity, seq)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID, runID, v.RuleID, v.DetectedValue, v.ExpectedValue, v.Suggestion, v.Severity, i); err != nil {
			r.logger.Error("failed to insert violation", "run_id", runID, "rule_id", v.RuleID, "error", err)
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *runRepository) Complete(ctx context.Context, runID uuid.UUID, endTS time.Time) error {
	// Only a running run may be completed; a terminal run keeps its end_ts.
	tag, err := r.db.Exec(ctx,
		`UPDATE runs SET status = $1, end_ts = $2 WHERE run_id = $3 AND status = $4`,
		constants.RunStatusCompleted, endTS, runID, constants.RunStatusRunning)
	if err != nil {
		r.logger.Error("failed to complete run", "run_id", runID, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *runRepository) AddTokenCost(ctx context.Context, runID uuid.UUID, delta float64) error {
	if delta < 0 {
		return common.NewAppError("TOKEN_COST", "token cost may not decrease", common.ErrInvalidInput)
	}
	_, err := r.db.Exec(ctx,
		`UPDATE runs SET token_cost = token_cost + $1 WHERE run_id = $2`, delta, runID)
	if err != nil {
		r.logger.Error("failed to add token cost", "run_id", runID, "error", err)
	}
	return err
}
