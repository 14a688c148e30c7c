package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef.pdf"

func TestLocal_SaveOpen(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, testKey, []byte("%PDF-1.4 body")))

	f, err := s.Open(ctx, testKey)
	require.NoError(t, err)
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "%PDF-1.4 body", string(b))

	_, err = s.Open(ctx, "fedcba9876543210fedcba9876543210.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), testKey, []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testKey, entries[0].Name())
}

func TestLocal_RejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "abc", "0123456789ABCDEF0123456789ABCDEF", "0123456789abcdef0123456789abcdef/x", ""} {
		assert.ErrorIs(t, s.Save(ctx, key, []byte("x")), ErrInvalidKey, key)
		_, err := s.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocal_CanceledContext(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, testKey, []byte("x")), context.Canceled)
}
