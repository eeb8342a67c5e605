package files

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/planner-service/internal/storage"
	"github.com/focusnest/planner-service/internal/support"
)

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() string { return f.id }

func newService(t *testing.T, blobs storage.BlobStore) *Service {
	t.Helper()
	clock := support.NewManualClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, err := NewService(NewMemoryRepository(), blobs, clock, fixedIDs{id: "file-1"})
	require.NoError(t, err)
	return svc
}

func TestServiceUpload(t *testing.T) {
	blobs := storage.NewMemoryStore()
	svc := newService(t, blobs)
	ctx := context.Background()

	f, err := svc.Upload(ctx, "u1", "Notes.PDF", "application/pdf; charset=binary", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/u1/file-1.pdf", f.Key)
	assert.Equal(t, int64(8), f.SizeBytes)

	url, err := svc.URL(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "memory://uploads/u1/file-1.pdf", url)

	_, err = svc.URL(ctx, "u2", f.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestServiceUpload_Rejects(t *testing.T) {
	svc := newService(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", "run.sh", "application/x-sh", strings.NewReader("echo"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(ctx, "u1", "", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	big := bytes.NewReader(make([]byte, MaxUploadBytes+1))
	_, err = svc.Upload(ctx, "u1", "big.txt", "text/plain", big)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceResolveOwned(t *testing.T) {
	blobs := storage.NewMemoryStore()
	svc := newService(t, blobs)
	ctx := context.Background()

	f, err := svc.Upload(ctx, "u1", "a.txt", "text/plain", strings.NewReader("a"))
	require.NoError(t, err)

	got, err := svc.ResolveOwned(ctx, "u1", []string{f.ID})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ResolveOwned(ctx, "u2", []string{f.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ResolveOwned(ctx, "u1", []string{"missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, blobs.Delete(ctx, f.Key))
	_, err = svc.ResolveOwned(ctx, "u1", []string{f.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDelete(t *testing.T) {
	blobs := storage.NewMemoryStore()
	svc := newService(t, blobs)
	ctx := context.Background()

	f, err := svc.Upload(ctx, "u1", "a.txt", "text/plain", strings.NewReader("a"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "u1", f.ID))

	ok, err := blobs.Exists(ctx, f.Key)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = svc.Get(ctx, "u1", f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
