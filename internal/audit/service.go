package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/internal/entity"
	"github.com/taxmitra/compliance-copilot/internal/repository"
)

// Service records API events with hashed request/response payloads. Logging
// failures are reported but never block the request path.
type Service struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

func NewService(repo repository.AuditRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Event describes one audit record.
type Event struct {
	UserID   *uuid.UUID
	RunID    *uuid.UUID
	Endpoint string
	Name     string
	Payload  any
	Response any
}

func (s *Service) Log(ctx context.Context, ev Event) {
	rec := &entity.AuditLog{
		ID:           uuid.New(),
		RunID:        ev.RunID,
		UserID:       ev.UserID,
		Endpoint:     ev.Endpoint,
		Event:        ev.Name,
		PayloadHash:  hashJSON(ev.Payload),
		ResponseHash: hashJSON(ev.Response),
		Timestamp:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		s.logger.Error("audit log write failed", "endpoint", ev.Endpoint, "event", ev.Name, "error", err)
	}
}

func hashJSON(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	sum := sha256.Sum256(b)
	h := hex.EncodeToString(sum[:])
	return &h
}
