package repository

import (
	"context"
	"log/slog"

	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/rules"
)

// RuleRepository is the storage-backed rule catalog. Ensure inserts the
// definition only when the rule id is unseen; the stored entry always wins,
// so repeated registration never rewrites title, severity or check kind.
type RuleRepository interface {
	rules.Catalog
	Get(ctx context.Context, ruleID string) (*entity.Rule, error)
}

type ruleRepository struct {
	db     DB
	logger *slog.Logger
}

func NewRuleRepository(db DB, logger *slog.Logger) RuleRepository {
	return &ruleRepository{db: db, logger: logger}
}

func (r *ruleRepository) Ensure(ctx context.Context, def rules.Definition) (*entity.Rule, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO rules (rule_id, title, severity, check_kind) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (rule_id) DO NOTHING`,
		def.RuleID, def.Title, def.Severity, def.CheckKind)
	if err != nil {
		r.logger.Error("failed to register rule", "rule_id", def.RuleID, "error", err)
		return nil, err
	}
	return r.Get(ctx, def.RuleID)
}

func (r *ruleRepository) Get(ctx context.Context, ruleID string) (*entity.Rule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT rule_id, title, severity, check_kind FROM rules WHERE rule_id = $1`, ruleID)
	var rule entity.Rule
	if err := row.Scan(&rule.RuleID, &rule.Title, &rule.Severity, &rule.CheckKind); err != nil {
		return nil, err
	}
	return &rule, nil
}
