package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const defaultAllowOrigins = "http://localhost:3000, http://127.0.0.1:3000"

// Allowed request headers are reflected from the preflight. Credentials are
// refused for a wildcard origin, which fiber rejects at startup.
func newCORSMiddleware(allowOrigins string) fiber.Handler {
	allowOrigins = strings.TrimSpace(allowOrigins)
	if allowOrigins == "" {
		allowOrigins = defaultAllowOrigins
	}

	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowCredentials: allowOrigins != "*",
		ExposeHeaders:    RequestIDKey,
	})
}
