package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/foldscape/foldscape/internal/errors"
)

// AdminClaims is the token payload for privileged endpoints.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth holds the signing secret for admin tokens.
type AdminAuth struct {
	secret []byte
}

// NewAdminAuth creates the admin authenticator. An empty secret disables
// issuance and rejects every token.
func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{secret: []byte(secret)}
}

// IssueToken creates a signed admin token valid for the given duration.
func (a *AdminAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("admin token secret not configured")
	}

	now := time.Now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken validates a token string and returns its claims.
func (a *AdminAuth) ParseToken(tokenString string) (*AdminClaims, error) {
	if len(a.secret) == 0 {
		return nil, fmt.Errorf("admin token secret not configured")
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Role != "admin" {
		return nil, fmt.Errorf("invalid admin token")
	}

	return claims, nil
}

// Middleware guards privileged endpoints with a Bearer admin token.
func (a *AdminAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			appErr := errors.NewUnauthorizedError("missing bearer token")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		claims, err := a.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			appErr := errors.NewUnauthorizedError("invalid admin token")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}
