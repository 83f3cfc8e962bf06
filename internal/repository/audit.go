package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/internal/entity"
)

type AuditRepository interface {
	Insert(ctx context.Context, log *entity.AuditLog) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.AuditLog, error)
}

type auditRepository struct {
	db     DB
	logger *slog.Logger
}

func NewAuditRepository(db DB, logger *slog.Logger) AuditRepository {
	return &auditRepository{db: db, logger: logger}
}

func (r *auditRepository) Insert(ctx context.Context, log *entity.AuditLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, run_id, user_id, endpoint, event, payload_hash, response_hash, token_cost, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID, log.RunID, log.UserID, log.Endpoint, log.Event, log.PayloadHash, log.ResponseHash, log.TokenCost, log.Timestamp)
	if err != nil {
		r.logger.Error("failed to insert audit log", "endpoint", log.Endpoint, "event", log.Event, "error", err)
	}
	return err
}

func (r *auditRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]*entity.AuditLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, user_id, endpoint, event, payload_hash, response_hash, token_cost, ts
		 FROM audit_logs WHERE run_id = $1 ORDER BY ts`, runID)
	if err != nil {
		r.logger.Error("failed to list audit logs", "run_id", runID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.UserID, &l.Endpoint, &l.Event, &l.PayloadHash, &l.ResponseHash, &l.TokenCost, &l.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &l)
	}
	return result, rows.Err()
}
