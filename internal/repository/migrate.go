package repository

import (
	"context"
	"log/slog"
)

const migration = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoices (
	id               UUID PRIMARY KEY,
	user_id          UUID NOT NULL REFERENCES users(id),
	filename         TEXT NOT NULL,
	stored_path      TEXT NOT NULL,
	content_hash_hex TEXT,
	status           TEXT NOT NULL DEFAULT 'uploaded',
	uploaded_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_invoices_user ON invoices(user_id);
CREATE INDEX IF NOT EXISTS idx_invoices_hash ON invoices(content_hash_hex);

CREATE TABLE IF NOT EXISTS invoice_data (
	id                 UUID PRIMARY KEY,
	invoice_id         UUID NOT NULL UNIQUE REFERENCES invoices(id),
	extracted_text     TEXT,
	extracted_json     JSONB NOT NULL,
	extraction_quality REAL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rules (
	rule_id    TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	severity   TEXT NOT NULL,
	check_kind TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id     UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	invoice_id UUID NOT NULL REFERENCES invoices(id),
	status     TEXT NOT NULL DEFAULT 'running',
	start_ts   TIMESTAMPTZ NOT NULL DEFAULT now(),
	end_ts     TIMESTAMPTZ,
	token_cost DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_invoice ON runs(invoice_id);

CREATE TABLE IF NOT EXISTS violations (
	id             UUID PRIMARY KEY,
	run_id         UUID NOT NULL REFERENCES runs(run_id),
	rule_id        TEXT NOT NULL REFERENCES rules(rule_id),
	detected_value TEXT,
	expected_value TEXT,
	suggestion     TEXT,
	severity       TEXT NOT NULL,
	seq            INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_violations_run ON violations(run_id);

CREATE TABLE IF NOT EXISTS audit_logs (
	id            UUID PRIMARY KEY,
	run_id        UUID,
	user_id       UUID,
	endpoint      TEXT NOT NULL,
	event         TEXT NOT NULL,
	payload_hash  TEXT,
	response_hash TEXT,
	token_cost    DOUBLE PRECISION NOT NULL DEFAULT 0,
	ts            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_logs(run_id);
`

// Migrate bootstraps the schema. Idempotent; for production roll-forward use
// a real migration tool.
func Migrate(ctx context.Context, db DB, logger *slog.Logger) error {
	logger.Info("applying schema migration")
	if _, err := db.Exec(ctx, migration); err != nil {
		logger.Error("schema migration failed", "error", err)
		return err
	}
	logger.Info("schema migration applied")
	return nil
}
