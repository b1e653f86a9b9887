package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	assert.Equal(t, "20240309_140507_face.jpg", FileName(ts, "face.jpg"))
	assert.Equal(t, "20240309_140507_passwd", FileName(ts, "../../etc/passwd"))
	assert.Equal(t, "20240309_140507_x.png", FileName(ts, `C:\photos\x.png`))
	assert.Equal(t, "20240309_140507_upload", FileName(ts, ""))
}

func TestLocalSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocal(dir)
	require.NoError(t, err)

	path, err := s.Save(context.Background(), "a.jpg", []byte("abc"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "a.jpg")), path)

	got, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestLocalSaveCanceled(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Save(ctx, "a.jpg", []byte("abc"), "image/jpeg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalDeleteFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	path, err := s.Save(context.Background(), "a.jpg", []byte("abc"), "image/jpeg")
	require.NoError(t, err)

	remover, ok := s.(Remover)
	require.True(t, ok)
	require.NoError(t, remover.DeleteFile(path))

	_, err = os.Stat(filepath.Join(dir, "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, remover.DeleteFile(path))
	_, isPresigner := s.(Presigner)
	assert.False(t, isPresigner)
}
