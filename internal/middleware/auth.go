package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/jwt"
	"github.com/folio-space/core/internal/pkg/response"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"

	// TokenCookie carries the admin session token for server-rendered pages.
	TokenCookie = "folio_token"
)

var ErrTokenRequired = errors.New("token is required")

// TokenValidator resolves a raw token into claims bound to a live session.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*jwt.Claims, error)
	Touch(ctx context.Context, userID, sessionID string)
}

// Auth returns a middleware that enforces JWT authentication.
func Auth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := ValidateTokenClaims(c.Request.Context(), v, ExtractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		setClaims(c, v, claims)
		c.Next()
	}
}

// OptionalAuth sets the user ID if a valid token is present, but does not block the request.
func OptionalAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := ValidateTokenClaims(c.Request.Context(), v, ExtractToken(c)); err == nil {
			setClaims(c, v, claims)
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, v TokenValidator, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	if claims.SessionID != "" {
		c.Set(ContextKeySID, claims.SessionID)
		v.Touch(c.Request.Context(), claims.UserID, claims.SessionID)
	}
}

// ValidateTokenClaims validates a raw token and returns its claims.
func ValidateTokenClaims(ctx context.Context, v TokenValidator, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, ErrTokenRequired
	}
	return v.Validate(ctx, token)
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// ExtractToken reads the token from the Authorization header, the session
// cookie or the token query parameter, in that order.
func ExtractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	if raw, err := c.Cookie(TokenCookie); err == nil && raw != "" {
		return NormalizeToken(raw)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
