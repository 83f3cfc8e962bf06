package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
)

// Rule is a compliance rule catalog entry. Immutable once created;
// registration is idempotent on RuleID.
type Rule struct {
	RuleID    string              `json:"rule_id"`
	Title     string              `json:"title"`
	Severity  constants.Severity  `json:"severity"`
	CheckKind constants.CheckKind `json:"check_kind"`
}

// Violation is one finding from evaluating one rule against one run.
// Severity is copied from the rule at evaluation time so historical
// violations are not affected by later rule edits.
type Violation struct {
	ID            uuid.UUID          `json:"id"`
	RunID         uuid.UUID          `json:"run_id"`
	RuleID        string             `json:"rule_id"`
	DetectedValue *string            `json:"detected_value,omitempty"`
	ExpectedValue *string            `json:"expected_value,omitempty"`
	Suggestion    string             `json:"suggestion"`
	Severity      constants.Severity `json:"severity"`
}

// Run is one compliance evaluation over one invoice's structured record.
type Run struct {
	ID         uuid.UUID           `json:"run_id"`
	UserID     uuid.UUID           `json:"user_id"`
	InvoiceID  uuid.UUID           `json:"invoice_id"`
	Status     constants.RunStatus `json:"status"`
	StartTS    time.Time           `json:"start_ts"`
	EndTS      *time.Time          `json:"end_ts,omitempty"`
	TokenCost  float64             `json:"token_cost"`
	Violations []Violation         `json:"violations"`
}
