package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// KeyFunc extracts the caller identity used to bucket requests.
type KeyFunc func(c *fiber.Ctx) string

// IPKeyFunc buckets by client IP. Used when no authenticated identity is
// available.
func IPKeyFunc(c *fiber.Ctx) string {
	return c.IP()
}

// New returns a fiber middleware that admits or rejects requests for one
// named action. Every response carries the limit, remaining count and reset
// time; a rejection additionally carries Retry-After and never reaches the
// guarded handler.
//
// A failing limiter backend admits the request (fail open) rather than
// turning a throttle outage into a total outage.
func New(limiter Limiter, action string, limit int, window time.Duration, keyFn KeyFunc) fiber.Handler {
	if keyFn == nil {
		keyFn = IPKeyFunc
	}
	return func(c *fiber.Ctx) error {
		key := keyFn(c)

		res, err := limiter.CheckAndRecord(c.Context(), action, key, limit, window)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("rate limiter unavailable, admitting request")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))

		if !res.Allowed {
			retryAfter := (res.ResetAt - time.Now().UnixMilli() + 999) / 1000
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok":    false,
				"error": "Rate limit exceeded",
			})
		}

		return c.Next()
	}
}
