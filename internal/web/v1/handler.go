// Package v1 holds the gin handlers for the auth API.
package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tdnguyen/auth-service/internal/core/domain"
	"github.com/tdnguyen/auth-service/internal/logger"
	logicv1 "github.com/tdnguyen/auth-service/internal/logic/v1"
	"github.com/tdnguyen/auth-service/middleware"
)

// AuthHandler groups the HTTP handlers for the auth endpoints.
// Dependencies are injected via the constructor — no global state.
type AuthHandler struct {
	auth *logicv1.AuthService
}

// NewAuthHandler creates a new AuthHandler with the given AuthService.
func NewAuthHandler(auth *logicv1.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes registers the auth routes on the given router group.
// Logout requires the session gate; /me requires the token gate.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, sessionGuard, tokenGuard gin.HandlerFunc) {
	rg.POST("/auth/signup", h.Signup)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/logout", sessionGuard, h.Logout)
	rg.GET("/auth/me", tokenGuard, h.Me)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.signup", trace.WithAttributes(
		attribute.String("layer", "web"),
	))
	defer span.End()

	log := logger.FromContext(ctx)

	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Signup(ctx, req)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("username", req.Username).Msg("Signup failed")

		switch {
		case errors.Is(err, logicv1.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	log.Info().Str("user_id", session.User.ID.String()).Msg("Signup successful")
	setSessionCookie(c, session)
	c.JSON(http.StatusCreated, domain.NewUserView(&session.User))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.login", trace.WithAttributes(
		attribute.String("layer", "web"),
	))
	defer span.End()

	log := logger.FromContext(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Msg("Login failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "The user credentials are invalid."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	log.Info().Str("user_id", session.User.ID.String()).Msg("Login successful")
	setSessionCookie(c, session)
	c.JSON(http.StatusOK, domain.NewUserView(&session.User))
}

// Logout handles POST /auth/logout. It runs behind the session gate, so the
// request identity is always populated here.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.logout", trace.WithAttributes(
		attribute.String("layer", "web"),
	))
	defer span.End()

	log := logger.FromContext(ctx)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session id."})
		return
	}

	userID, err := uuid.Parse(identity.Sub)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session id."})
		return
	}

	ok, err = h.auth.Logout(ctx, userID)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("Logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Info().Str("user_id", identity.Sub).Msg("Logout")
	clearSessionCookie(c)
	c.JSON(http.StatusOK, ok)
}

// Me handles GET /auth/me behind the token gate.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
		return
	}

	userID, err := uuid.Parse(identity.Sub)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
		return
	}

	user, err := h.auth.UserByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
		return
	}

	c.JSON(http.StatusOK, domain.NewUserView(user))
}

// setSessionCookie hands the session id to the client. The cookie is
// HttpOnly (no Document.cookie access), Secure (HTTPS only), scoped to /,
// SameSite=Strict, and expires together with the session.
func setSessionCookie(c *gin.Context, session *domain.Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID.String(),
		Path:     "/",
		Expires:  session.ExpireDate,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
