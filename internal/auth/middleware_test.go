package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

func newTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"sub": p.Subject, "authorities": p.Authorities})
	})
	app.Get("/admin", mw.Handle, RequireAuthority(RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func bearer(t *testing.T, tm *TokenManager, claims Claims) string {
	t.Helper()
	token, _, err := tm.GenerateToken(claims, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret")
	app := newTestApp(tm)
	admin := Text("admin")
	agent := Text("agent")

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "/me", bearer(t, tm, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}), http.StatusOK},
		{"admin route with admin", "/admin", bearer(t, tm, Claims{Role: &admin}), http.StatusNoContent},
		{"admin route with agent", "/admin", bearer(t, tm, Claims{Role: &agent}), http.StatusForbidden},
		{"admin route via roles list", "/admin", bearer(t, tm, Claims{Roles: RoleList{"ADMIN"}}), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestPrincipal_ExternalID(t *testing.T) {
	p := &Principal{Subject: "6f1c2d4e-1111-4a4a-9b9b-000000000001"}
	id, ok := p.ExternalID()
	assert.True(t, ok)
	assert.Equal(t, "6f1c2d4e-1111-4a4a-9b9b-000000000001", id.String())

	_, ok = (&Principal{Subject: "not-a-uuid"}).ExternalID()
	assert.False(t, ok)
}
