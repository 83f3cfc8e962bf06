package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/audit"
	"github.com/taxmitra/compliance-copilot/internal/auth"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/repository"
)

type memUsers struct {
	byEmail map[string]*entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]*entity.User)}
}

var _ repository.UserRepository = (*memUsers)(nil)

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return common.NewAppError("USER_EXISTS", "email already registered", common.ErrInvalidInput)
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

type memAudit struct {
	logs []*entity.AuditLog
}

func (m *memAudit) Insert(_ context.Context, l *entity.AuditLog) error {
	m.logs = append(m.logs, l)
	return nil
}

func (m *memAudit) ListByRun(_ context.Context, runID uuid.UUID) ([]*entity.AuditLog, error) {
	var out []*entity.AuditLog
	for _, l := range m.logs {
		if l.RunID != nil && *l.RunID == runID {
			out = append(out, l)
		}
	}
	return out, nil
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func newTestServer(t *testing.T) (*Server, *memUsers, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	users := newMemUsers()
	auditRepo := &memAudit{}
	srv := New(tokens, users, auditRepo, nil, nil, nil, audit.NewService(auditRepo, nil), nil)
	return srv, users, tokens
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthenticate_MissingToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_BadToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compliance/runs/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAudit_RequiresAdmin(t *testing.T) {
	srv, _, tokens := newTestServer(t)

	token, err := tokens.IssueAccess(uuid.New(), constants.UserRoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/runs/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAudit_AdminListsRunEvents(t *testing.T) {
	srv, _, tokens := newTestServer(t)

	token, err := tokens.IssueAccess(uuid.New(), constants.UserRoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/runs/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSignupAndLogin(t *testing.T) {
	srv, users, _ := newTestServer(t)
	router := srv.Router()

	body := `{"email":"Dev@Example.com","password":"hunter2hunter2"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", jsonBody(body))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Email is normalized to lower case.
	_, ok := users.byEmail["dev@example.com"]
	require.True(t, ok)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(body))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var tr tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.NotEmpty(t, tr.AccessToken)
	assert.NotEmpty(t, tr.RefreshToken)
	assert.Equal(t, "bearer", tr.TokenType)
}

func TestSignup_Validation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	for name, body := range map[string]string{
		"bad email":      `{"email":"nope","password":"hunter2hunter2"}`,
		"short password": `{"email":"a@b.com","password":"short"}`,
		"not json":       `{{{`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", jsonBody(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin_UnknownEmailAndBadPasswordLookAlike(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup",
		jsonBody(`{"email":"a@b.com","password":"hunter2hunter2"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	unknown := httptest.NewRecorder()
	router.ServeHTTP(unknown, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		jsonBody(`{"email":"who@b.com","password":"hunter2hunter2"}`)))

	badPass := httptest.NewRecorder()
	router.ServeHTTP(badPass, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		jsonBody(`{"email":"a@b.com","password":"wrong-password"}`)))

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, badPass.Code)
	assert.Equal(t, unknown.Body.String(), badPass.Body.String())
}

func TestPathUUID_Invalid(t *testing.T) {
	srv, _, tokens := newTestServer(t)

	token, err := tokens.IssueAccess(uuid.New(), constants.UserRoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compliance/runs/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
