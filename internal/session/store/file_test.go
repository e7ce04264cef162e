package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreReadAbsent(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger())

	_, err := fs.Read(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStoreWriteReadDelete(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger())

	record := []byte(`{"id":"u-1"}`)
	require.NoError(t, fs.Write(ctx, record))

	got, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, record, got)

	require.NoError(t, fs.Delete(ctx))
	_, err = fs.Read(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStoreWriteReplaces(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger())

	require.NoError(t, fs.Write(ctx, []byte("first")))
	require.NoError(t, fs.Write(ctx, []byte("second")))

	got, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger())

	require.NoError(t, fs.Delete(ctx))
	require.NoError(t, fs.Delete(ctx))
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	fs := NewFileStore(path, testLogger())

	require.NoError(t, fs.Write(ctx, []byte("record")))

	got, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), got)
}

func TestFileStoreHealthCheck(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger())
	assert.NoError(t, fs.HealthCheck(context.Background()))
}
