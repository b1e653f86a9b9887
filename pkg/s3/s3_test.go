package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]bool
	calls   []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
	switch r.Method {
	case http.MethodPut:
		b.objects[r.URL.Path] = true
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if !b.objects[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (ItfS3, *fakeBucket) {
	t.Helper()

	bucket := &fakeBucket{objects: map[string]bool{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	t.Setenv("AWS_ENDPOINT", srv.URL)
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_BUCKET_NAME", "faces")
	t.Setenv("AWS_UPLOAD_PREFIX", "uploads")

	client, err := New()
	require.NoError(t, err)
	return client, bucket
}

func TestSavePresignDelete(t *testing.T) {
	client, bucket := newTestClient(t)

	location, err := client.Save(context.Background(), "20240309_140507_a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(location, "/faces/uploads/20240309_140507_a.jpg"), location)

	link, err := client.PresignUrl(location)
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/faces/uploads/20240309_140507_a.jpg", parsed.Path)
	assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))

	require.NoError(t, client.DeleteFile(location))

	_, err = client.PresignUrl(location)
	assert.Error(t, err)

	assert.Contains(t, bucket.calls, "DELETE /faces/uploads/20240309_140507_a.jpg")
}

func TestKeyFromLocation(t *testing.T) {
	c := &s3Client{bucketName: "faces"}

	assert.Equal(t, "uploads/a.jpg", c.keyFromLocation("https://faces.s3.ap-southeast-1.amazonaws.com/uploads/a.jpg"))
	assert.Equal(t, "uploads/a b.jpg", c.keyFromLocation("https://s3.amazonaws.com/faces/uploads/a%20b.jpg"))
	assert.Equal(t, "plain-key.jpg", c.keyFromLocation("plain-key.jpg"))
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "a.jpg", (&s3Client{}).key("a.jpg"))
	assert.Equal(t, "faces/a.jpg", (&s3Client{prefix: "faces"}).key("a.jpg"))
}

func TestNewRequiresBucket(t *testing.T) {
	t.Setenv("AWS_BUCKET_NAME", "")
	_, err := New()
	assert.Error(t, err)
}
