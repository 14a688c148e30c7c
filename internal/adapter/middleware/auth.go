package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SubjectKey is where JWTAuth stores the authenticated subject on the echo context.
const SubjectKey = "auth.subject"

const tokenIssuer = "approv"

var errMissingBearer = errors.New("missing bearer token")

// JWTAuth guards internal routes. Tokens are HS256 with a non-empty subject.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}
			claims := &jwt.RegisteredClaims{}
			_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return secret, nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithIssuer(tokenIssuer),
				jwt.WithExpirationRequired(),
			)
			if err != nil || strings.TrimSpace(claims.Subject) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			c.Set(SubjectKey, claims.Subject)
			return next(c)
		}
	}
}

// Subject returns the authenticated subject, or "" on public routes.
func Subject(c echo.Context) string {
	s, _ := c.Get(SubjectKey).(string)
	return s
}

// IssueToken signs a token for an internal user.
func IssueToken(secret []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearer(h string) (string, error) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", errMissingBearer
	}
	return strings.TrimSpace(h[len(prefix):]), nil
}
