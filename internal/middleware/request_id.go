package middleware

import (
	contextPkg "FaceDetect/pkg/context"
	"FaceDetect/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = contextPkg.RequestIDHeader

// NewRequestIDMiddleware reuses a client supplied X-Request-ID or mints a
// ULID, and exposes it through Locals, the response header and the request's
// user context.
func NewRequestIDMiddleware() fiber.Handler {
	ids := utils.New(0)

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if requestID == "" {
			requestID, _ = ids.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.SetUserContext(contextPkg.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}
