package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/common"
)

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), id)))
	})
}

// authenticate validates the bearer token and stashes the user id and role in
// the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			common.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, role, err := s.tokens.Verify(token)
		if err != nil {
			common.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithUser(r.Context(), userID, role)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := common.UserRoleFromContext(r.Context())
		if !ok || role != constants.UserRoleAdmin {
			common.WriteErrorFrom(w, common.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user id or writes a 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteErrorFrom(w, common.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(w http.ResponseWriter, param, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, param+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
