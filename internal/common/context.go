package common

import (
	"context"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyUserRole  contextKey = "user_role"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithUser adds the authenticated user's id and role to the context
func WithUser(ctx context.Context, userID uuid.UUID, role constants.UserRole) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyUserRole, role)
}

// UserIDFromContext extracts the authenticated user id from context
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return id, ok
}

// UserRoleFromContext extracts the authenticated user role from context
func UserRoleFromContext(ctx context.Context) (constants.UserRole, bool) {
	role, ok := ctx.Value(ContextKeyUserRole).(constants.UserRole)
	return role, ok
}
