package utils

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="face.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

func TestNewULIDFromTimestamp(t *testing.T) {
	now := time.Now()
	id, err := New(0).NewULIDFromTimestamp(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), int64(parsed.Time()))
}

func TestValidateImageFile(t *testing.T) {
	u := New(8)

	assert.ErrorIs(t, u.ValidateImageFile(nil), ErrMissingFile)
	assert.NoError(t, u.ValidateImageFile(fileHeader(t, "image/png", []byte("tiny"))))
	assert.ErrorIs(t, u.ValidateImageFile(fileHeader(t, "text/plain", []byte("tiny"))), ErrNotImage)
	assert.ErrorIs(t, u.ValidateImageFile(fileHeader(t, "image/png", []byte("far too large"))), ErrFileTooLarge)
}

func TestReadFile(t *testing.T) {
	u := New(8)

	data, err := u.ReadFile(fileHeader(t, "image/png", []byte("tiny")))
	require.NoError(t, err)
	assert.Equal(t, []byte("tiny"), data)

	_, err = u.ReadFile(fileHeader(t, "image/png", []byte("far too large")))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
