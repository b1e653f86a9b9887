package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(cfg Config) Middleware {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, cfg)
}

func TestSanitizeRequestBody(t *testing.T) {
	got := sanitizeRequestBody("application/json", []byte(`{"image":"aGVsbG8=","note":"x"}`))
	assert.Contains(t, got, `"image":"[IMAGE 8 bytes]"`)
	assert.Contains(t, got, `"note":"x"`)

	assert.Equal(t, "[multipart body]", sanitizeRequestBody("multipart/form-data; boundary=x", []byte("--x")))
	assert.Equal(t, "[non-JSON body]", sanitizeRequestBody("text/plain", []byte("hello")))

	long := `{"note":"` + strings.Repeat("a", 2*maxLoggedBody) + `"}`
	assert.True(t, strings.HasSuffix(sanitizeRequestBody("application/json", []byte(long)), "...[truncated]"))
}

func TestRequestIDMiddleware(t *testing.T) {
	m := newTestMiddleware(Config{})
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Len(t, string(body), 26)
	assert.Equal(t, string(body), resp.Header.Get(RequestIDKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "client-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "client-id", string(body))
}

func TestRateLimiter(t *testing.T) {
	m := newTestMiddleware(Config{RateLimit: 0.001, RateBurst: 2})
	app := fiber.New()
	app.Get("/", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	var retryAfter string
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		retryAfter = resp.Header.Get(fiber.HeaderRetryAfter)
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, "1000", retryAfter)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	r := newRateLimiter(1, 1)
	start := time.Now()

	first := r.limiterFor("10.0.0.1", start)
	assert.Same(t, first, r.limiterFor("10.0.0.1", start.Add(time.Minute)))

	r.limiterFor("10.0.0.2", start.Add(2*clientIdleTTL))
	assert.Len(t, r.clients, 1)
	assert.NotSame(t, first, r.limiterFor("10.0.0.1", start.Add(2*clientIdleTTL)))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	m := newTestMiddleware(Config{})
	app := fiber.New()
	app.Use(m.NewCORSMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
