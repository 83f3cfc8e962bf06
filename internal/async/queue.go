package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is the smallest useful unit. Extend as needed later (user, trace, retry, etc).
type Job struct {
	InvoiceID   uuid.UUID
	SubmittedAt time.Time
	TraceID     string
}

// Queue delivers each enqueued job to the ingestion processor at least once.
// Implementations are responsible for per-invoice exclusivity: at most one
// job per invoice id may be executing at a time.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
