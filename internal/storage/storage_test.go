package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.Put(ctx, "uploads/u1/f1.pdf", "application/pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	ok, err := s.Exists(ctx, "uploads/u1/f1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	url, err := s.URL(ctx, "uploads/u1/f1.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "memory://uploads/u1/f1.pdf", url)

	require.NoError(t, s.Delete(ctx, "uploads/u1/f1.pdf"))
	_, err = s.URL(ctx, "uploads/u1/f1.pdf", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewGCSStore_RequiresBucket(t *testing.T) {
	_, err := NewGCSStore(context.Background(), "")
	assert.Error(t, err)
}
