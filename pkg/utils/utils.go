package utils

import (
	"crypto/rand"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrMissingFile  = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file too large")
	ErrNotImage     = errors.New("file is not an image")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
	MaxFileSize() int64
}

type utils struct {
	maxFileSize int64
}

func New(maxFileSize int64) IUtils {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	return &utils{
		maxFileSize: maxFileSize,
	}
}

func (u *utils) MaxFileSize() int64 {
	return u.maxFileSize
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrMissingFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return ErrNotImage
	}

	return nil
}

// ReadFile reads at most maxFileSize+1 bytes so an understated header size
// cannot force an unbounded read.
func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}

	return data, nil
}
