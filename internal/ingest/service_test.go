package ingest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/async"
	"github.com/taxmitra/compliance-copilot/internal/common"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

type captureQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *captureQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *captureQueue) Shutdown(context.Context) {}

type memInvoices struct {
	created []*entity.Invoice
}

func (m *memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	m.created = append(m.created, inv)
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	for _, inv := range m.created {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memInvoices) ListByUser(context.Context, uuid.UUID, int, int) ([]*entity.Invoice, error) {
	return m.created, nil
}

func (m *memInvoices) SetStatus(context.Context, uuid.UUID, constants.InvoiceStatus) error {
	return nil
}

func (m *memInvoices) UpsertData(context.Context, *entity.InvoiceData) error { return nil }

func (m *memInvoices) GetData(context.Context, uuid.UUID) (*entity.InvoiceData, error) {
	return nil, common.ErrNotFound
}

func TestUpload_StoresAndQueues(t *testing.T) {
	repo := &memInvoices{}
	queue := &captureQueue{}
	svc := NewService(repo, queue, t.TempDir(), nil)

	userID := uuid.New()
	inv, err := svc.Upload(context.Background(), userID, "march-invoice.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)

	assert.Equal(t, userID, inv.UserID)
	assert.Equal(t, "march-invoice.pdf", inv.Filename)
	assert.Equal(t, constants.InvoiceStatusUploaded, inv.Status)
	assert.Len(t, inv.HashHex, 64)
	assert.FileExists(t, inv.StoredPath)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, inv.ID, queue.jobs[0].InvoiceID)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	svc := NewService(&memInvoices{}, &captureQueue{}, t.TempDir(), nil)

	_, err := svc.Upload(context.Background(), uuid.New(), "notes.txt", strings.NewReader("hello"))
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestUpload_RejectsEmptyFile(t *testing.T) {
	queue := &captureQueue{}
	svc := NewService(&memInvoices{}, queue, t.TempDir(), nil)

	_, err := svc.Upload(context.Background(), uuid.New(), "empty.pdf", strings.NewReader(""))
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Empty(t, queue.jobs)
}

func TestGet_OwnershipEnforced(t *testing.T) {
	repo := &memInvoices{}
	svc := NewService(repo, &captureQueue{}, t.TempDir(), nil)

	owner := uuid.New()
	inv, err := svc.Upload(context.Background(), owner, "a.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, err = svc.Get(context.Background(), uuid.New(), inv.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
