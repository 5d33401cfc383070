// Package auth authenticates requests with HS256 bearer tokens and
// authorizes them by role, per transport operation.
package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/transport"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Role is the role of an authenticated user.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleAdmin     Role = "admin"
	RoleOrphanage Role = "orphanage"
	RoleVolunteer Role = "volunteer"
)

const (
	reasonNoClaims  = "NO_ROLE_INFORMATION"
	reasonForbidden = "ROLE_NOT_ALLOWED"
)

// Claims are the claims of an access token.
type Claims struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
	jwtv5.RegisteredClaims
}

// Server returns the authentication middleware. Requests without a valid
// token signed with secret are rejected with 401.
func Server(secret string) middleware.Middleware {
	key := []byte(secret)
	return jwt.Server(
		func(*jwtv5.Token) (any, error) { return key, nil },
		jwt.WithSigningMethod(jwtv5.SigningMethodHS256),
		jwt.WithClaims(func() jwtv5.Claims { return &Claims{} }),
	)
}

// FromContext returns the claims of the authenticated user.
func FromContext(ctx context.Context) (*Claims, bool) {
	token, ok := jwt.FromContext(ctx)
	if !ok {
		return nil, false
	}
	c, ok := token.(*Claims)
	return c, ok
}

// Authorize rejects requests whose role is not listed for the operation.
// Operations absent from rules only need an authenticated user.
func Authorize(rules map[string][]Role) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			c, ok := FromContext(ctx)
			if !ok || c.Role == "" {
				return nil, errors.Forbidden(reasonNoClaims, "access denied: no role information")
			}
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			roles, ok := rules[tr.Operation()]
			if ok && !slices.Contains(roles, c.Role) {
				return nil, errors.Forbidden(reasonForbidden, fmt.Sprintf("access denied: required role(s): %v", roles))
			}
			return handler(ctx, req)
		}
	}
}

// Sign issues a token for c that expires after ttl.
func Sign(secret string, c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	c.IssuedAt = jwtv5.NewNumericDate(now)
	c.ExpiresAt = jwtv5.NewNumericDate(now.Add(ttl))
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c).SignedString([]byte(secret))
}
