package httpserver

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/silverlyra/portico/domain/rooms"
)

// actorKey is the fiber context key holding the authenticated user id.
const actorKey = "actor"

const tokenIssuer = "portico"

// TokenManager signs and validates the bearer tokens the API hands out at
// registration. The core modules never see a token, only the resolved
// actor id.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token identifying the user.
func (t *TokenManager) Issue(user *rooms.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", rooms.Wrap(rooms.KindInternal, err, "failed to sign token")
	}
	return signed, nil
}

// Validate checks a token and returns the actor id it identifies.
func (t *TokenManager) Validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", rooms.Errf(rooms.KindUnauthorized, "missing credentials")
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, rooms.Errf(rooms.KindUnauthorized, "unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", rooms.Errf(rooms.KindUnauthorized, "invalid or expired token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", rooms.Errf(rooms.KindUnauthorized, "token carries no subject")
	}
	return claims.Subject, nil
}

// requireActor resolves the caller's identity or rejects the request.
func (m *Module) requireActor(c *fiber.Ctx) error {
	actor, err := m.tokens.Validate(tokenFrom(c))
	if err != nil {
		return err
	}
	c.Locals(actorKey, actor)
	return c.Next()
}

// tokenFrom accepts a Bearer header, or a token query parameter for
// WebSocket clients that cannot set headers.
func tokenFrom(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func actorFrom(c *fiber.Ctx) string {
	actor, _ := c.Locals(actorKey).(string)
	return actor
}
