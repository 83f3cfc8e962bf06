package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one API event with hashed payloads.
type AuditLog struct {
	ID           uuid.UUID  `json:"id"`
	RunID        *uuid.UUID `json:"run_id,omitempty"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Endpoint     string     `json:"endpoint"`
	Event        string     `json:"event"`
	PayloadHash  *string    `json:"payload_hash,omitempty"`
	ResponseHash *string    `json:"response_hash,omitempty"`
	TokenCost    float64    `json:"token_cost"`
	Timestamp    time.Time  `json:"timestamp"`
}
