package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tdnguyen/auth-service/internal/auth"
	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// Identity is the authenticated principal a gate attaches to the request.
type Identity struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
}

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// IdentityFromContext extracts the authenticated identity from a request
// context populated by one of the gates.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func setIdentity(c *gin.Context, id Identity) {
	ctx := context.WithValue(c.Request.Context(), identityKey, id)
	c.Request = c.Request.WithContext(ctx)
}

// SessionStore is the session gate's view of the session lifecycle.
// *logicv1.SessionService satisfies it.
type SessionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	ExtendExpiration(ctx context.Context, id uuid.UUID) (int64, error)
}

// TokenGuard admits requests carrying a valid bearer token in the
// Authorization header. The header must be exactly "Bearer <token>"; the
// verified claims populate the request identity. The guard is stateless —
// it never touches storage.
func TokenGuard(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Malformed token."})
			return
		}

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			// The cause (signature, expiry, payload) stays internal.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
			return
		}

		setIdentity(c, Identity{Sub: claims.Subject, Username: claims.Username})
		zerolog.Ctx(c.Request.Context()).Debug().
			Str("user_id", claims.Subject).
			Msg("Authorized bearer token")

		c.Next()
	}
}

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "session_id"

// SessionGuard admits requests carrying a valid session_id cookie. The
// session's expiration is extended before the handler chain runs, so a
// session can never be used past its nominal TTL by racing the renewal.
func SessionGuard(sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Malformed session id."})
			return
		}

		id, err := uuid.Parse(cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session id."})
			return
		}

		session, err := sessions.FindByID(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session id."})
			return
		}

		if _, err := sessions.ExtendExpiration(c.Request.Context(), id); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		setIdentity(c, Identity{
			Sub:      session.User.ID.String(),
			Username: session.User.Username,
		})
		zerolog.Ctx(c.Request.Context()).Debug().
			Str("session_id", id.String()).
			Msg("Authorized session")

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
