package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdnguyen/auth-service/internal/auth"
	"github.com/tdnguyen/auth-service/internal/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// identityEcho terminates a guarded chain and reports the identity the gate
// attached.
func identityEcho(c *gin.Context) {
	id, ok := IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
		return
	}
	c.JSON(http.StatusOK, id)
}

func TestTokenGuard(t *testing.T) {
	secret := []byte("test-secret")

	r := gin.New()
	r.GET("/protected", TokenGuard(secret), identityEcho)

	validToken, err := auth.GenerateToken("user-1", "alice", secret, time.Hour)
	require.NoError(t, err)
	expiredToken, err := auth.GenerateToken("user-1", "alice", secret, -time.Second)
	require.NoError(t, err)
	foreignToken, err := auth.GenerateToken("user-1", "alice", []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + validToken, http.StatusOK, `"username":"alice"`},
		{"missing header", "", http.StatusUnauthorized, "Malformed token."},
		{"no bearer prefix", validToken, http.StatusUnauthorized, "Malformed token."},
		{"lowercase scheme", "bearer " + validToken, http.StatusUnauthorized, "Malformed token."},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Malformed token."},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, "Invalid token."},
		{"wrong signature", "Bearer " + foreignToken, http.StatusUnauthorized, "Invalid token."},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "Invalid token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

// fakeSessionStore implements SessionStore for guard tests.
type fakeSessionStore struct {
	sessions map[uuid.UUID]*domain.Session
	extended []uuid.UUID
}

func (f *fakeSessionStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) ExtendExpiration(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.sessions[id]; !ok {
		return 0, nil
	}
	f.extended = append(f.extended, id)
	return 1, nil
}

func TestSessionGuard(t *testing.T) {
	sessionID := uuid.New()
	userID := uuid.New()

	store := &fakeSessionStore{sessions: map[uuid.UUID]*domain.Session{
		sessionID: {
			ID:         sessionID,
			User:       domain.User{ID: userID, Username: "alice"},
			ExpireDate: time.Now().Add(time.Hour),
		},
	}}

	r := gin.New()
	r.POST("/protected", SessionGuard(store), identityEcho)

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"valid session", sessionID.String(), http.StatusOK, `"username":"alice"`},
		{"no cookie", "", http.StatusUnauthorized, "Malformed session id."},
		{"unknown session", uuid.NewString(), http.StatusUnauthorized, "Invalid session id."},
		{"non-uuid cookie", "not-a-uuid", http.StatusUnauthorized, "Invalid session id."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/protected", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}

	// The one admitted request extended its session before the handler ran.
	require.Len(t, store.extended, 1)
	assert.Equal(t, sessionID, store.extended[0])
}
