package middleware

import (
	"FaceDetect/pkg/log"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const clientIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than clientIdleTTL are swept on access.
type rateLimiter struct {
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burstSize int
	lastSweep time.Time
	mutex     sync.Mutex
}

func newRateLimiter(reqRate float64, burstSize int) *rateLimiter {
	return &rateLimiter{
		clients:   make(map[string]*clientLimiter),
		rate:      rate.Limit(reqRate),
		burstSize: burstSize,
		lastSweep: time.Now(),
	}
}

func (r *rateLimiter) limiterFor(ip string, now time.Time) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if now.Sub(r.lastSweep) > clientIdleTTL {
		for key, c := range r.clients {
			if now.Sub(c.lastSeen) > clientIdleTTL {
				delete(r.clients, key)
			}
		}
		r.lastSweep = now
	}

	client, exist := r.clients[ip]
	if !exist {
		client = &clientLimiter{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.clients[ip] = client
	}
	client.lastSeen = now

	return client.limiter
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()
	limiter := m.rateLimitter.limiterFor(clientIP, time.Now())

	if !limiter.Allow() {
		m.log.WithFields(log.Fields{
			"request_id": m.GetRequestID(ctx),
			"ip":         clientIP,
			"path":       ctx.Path(),
		}).Warn("Too many detection requests")

		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(m.retryAfterSeconds()))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many requests",
		})
	}

	return ctx.Next()
}

// retryAfterSeconds is the time to refill one token, rounded up.
func (m *middleware) retryAfterSeconds() int {
	perToken := 1 / float64(m.rateLimitter.rate)
	seconds := int(perToken)
	if float64(seconds) < perToken {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
