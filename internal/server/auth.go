package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/auth"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		common.WriteError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		common.WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	u := &entity.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         constants.UserRoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(r.Context(), u); err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	common.WriteJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.VerifyPassword(u.PasswordHash, req.Password) {
		// Same answer for unknown email and bad password.
		common.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.writeTokens(w, u.ID, u.Role)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		common.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	userID, role, err := s.tokens.Verify(req.RefreshToken)
	if err != nil {
		common.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	// The account may have been removed since the token was issued.
	if _, err := s.users.GetByID(r.Context(), userID); err != nil {
		common.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	s.writeTokens(w, userID, role)
}

func (s *Server) writeTokens(w http.ResponseWriter, userID uuid.UUID, role constants.UserRole) {
	access, err := s.tokens.IssueAccess(userID, role)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	refresh, err := s.tokens.IssueRefresh(userID, role)
	if err != nil {
		common.WriteErrorFrom(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}
