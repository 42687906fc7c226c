package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// RoleAdmin is the authority required by admin routes.
const RoleAdmin = RolePrefix + "ADMIN"

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAuthority ensures the principal holds at least one of the authorities.
func RequireAuthority(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 || principal.Authorities.HasAny(allowed...) {
			return c.Next()
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
