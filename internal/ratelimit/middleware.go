package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-platform/support-api/internal/auth"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// CallerKey identifies the caller by token subject, or by client IP when the
// request is anonymous.
func CallerKey(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Subject != "" {
		return "sub:" + principal.Subject
	}
	return "ip:" + c.IP()
}

// Middleware rejects callers over their budget with 429.
func Middleware(limiter Limiter, retryAfter time.Duration) fiber.Handler {
	retrySeconds := strconv.Itoa(int(retryAfter.Round(time.Second) / time.Second))
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.UserContext(), CallerKey(c))
		if err != nil {
			return err
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, retrySeconds)
			return apperrors.NewTooManyRequests("rate limit exceeded")
		}
		return c.Next()
	}
}
