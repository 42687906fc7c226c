// Command devtoken mints HS256 bearer tokens for local testing.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/helpdesk-platform/support-api/internal/auth"
	"github.com/helpdesk-platform/support-api/internal/config"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file holding AUTH_JWT_SECRET")
	subject := pflag.String("sub", "", "token subject; a random uuid when empty")
	email := pflag.String("email", "", "email claim")
	role := pflag.String("role", "user", "role claim")
	scope := pflag.String("scope", "", "space separated scopes")
	ttl := pflag.Duration("ttl", time.Hour, "token lifetime")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *subject == "" {
		*subject = uuid.NewString()
	}
	claims := auth.Claims{
		Email:            *email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: *subject},
	}
	if *role != "" {
		r := auth.Text(*role)
		claims.Role = &r
	}
	if s := strings.Fields(*scope); len(s) > 0 {
		claims.Scope = auth.StringList(s)
	}

	token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret).GenerateToken(claims, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Fprintln(os.Stderr, "expires", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
