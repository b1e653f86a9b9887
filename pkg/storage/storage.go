package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IStorage persists the raw bytes of an uploaded image and returns where they
// were stored.
type IStorage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Presigner is implemented by drivers whose saved paths are not directly
// readable and need a short-lived link.
type Presigner interface {
	PresignUrl(fileUrl string) (string, error)
}

// Remover is implemented by drivers that can delete a saved upload.
type Remover interface {
	DeleteFile(fileName string) error
}

type localStorage struct {
	dir string
}

func NewLocal(dir string) (IStorage, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) Save(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return filepath.ToSlash(path), nil
}

// DeleteFile removes a saved upload. Only the base name is honored, so paths
// outside the upload directory cannot be reached. A missing file is not an
// error.
func (s *localStorage) DeleteFile(fileName string) error {
	path := filepath.Join(s.dir, filepath.Base(filepath.FromSlash(fileName)))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// FileName builds "<YYYYmmdd_HHMMSS>_<base name>" so uploads sort by arrival.
func FileName(t time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s_%s", t.Format("20060102_150405"), base)
}
