package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// FromFiberCtx derives a request-scoped context carrying the request id set
// by the request id middleware.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, ok := c.Locals(RequestIDHeader).(string)
	if !ok || requestID == "" {
		requestID = c.Get(RequestIDHeader)
	}
	if requestID == "" {
		requestID = "unknown"
	}

	return WithRequestID(c.UserContext(), requestID)
}
