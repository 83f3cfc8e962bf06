package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
)

// User represents an account for data transfer between layers.
type User struct {
	ID           uuid.UUID          `json:"id"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"-"`
	Role         constants.UserRole `json:"role"`
	CreatedAt    time.Time          `json:"created_at"`
}
