package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdnguyen/auth-service/internal/auth"
	"github.com/tdnguyen/auth-service/internal/core/domain"
	"github.com/tdnguyen/auth-service/internal/core/memstore"
	logicv1 "github.com/tdnguyen/auth-service/internal/logic/v1"
	"github.com/tdnguyen/auth-service/middleware"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the full stack over an in-memory store, matching the
// composition in cmd/main.go.
func newTestRouter(t *testing.T) (*gin.Engine, *memstore.Store) {
	t.Helper()

	store := memstore.New()
	credentials := logicv1.NewCredentialService(store.Credentials())
	sessions := logicv1.NewSessionService(store.Sessions(), time.Hour)
	authService := logicv1.NewAuthService(store, credentials, sessions)
	thingService := logicv1.NewThingService(store.Things())

	sessionGuard := middleware.SessionGuard(sessions)
	tokenGuard := middleware.TokenGuard([]byte(testSecret))

	r := gin.New()
	NewAuthHandler(authService).RegisterRoutes(&r.RouterGroup, sessionGuard, tokenGuard)
	NewThingHandler(thingService).RegisterRoutes(r.Group("/api"), tokenGuard)
	return r, store
}

func doJSON(r *gin.Engine, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session_id cookie in response")
	return nil
}

func TestSignup(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"p1"}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var view domain.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "a@x.com", view.Email)
	_, err := uuid.Parse(view.ID)
	assert.NoError(t, err)

	cookie := sessionCookie(t, w)
	_, err = uuid.Parse(cookie.Value)
	assert.NoError(t, err)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, cookie.Expires.After(time.Now()))
}

func TestSignup_DuplicateUsername(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"other@x.com","password":"p2"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists.")
}

func TestSignup_InvalidBody(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, body := range []string{
		`{"username":"alice","email":"not-an-email","password":"p1"}`,
		`{"username":"alice","password":"p1"}`,
		`{"email":"a@x.com","password":"p1"}`,
		`{"username":"alice","email":"a@x.com"}`,
	} {
		w := doJSON(r, http.MethodPost, "/auth/signup", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"p1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var view domain.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "alice", view.Username)
	sessionCookie(t, w)
}

func TestLogin_WrongPassword(t *testing.T) {
	r, store := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var view domain.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	userID := uuid.MustParse(view.ID)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"p1"}`,
	} {
		w = doJSON(r, http.MethodPost, "/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "The user credentials are invalid.")
	}

	// Only the signup session exists; the failed logins created none.
	deleted, err := store.Sessions().DeleteByOwner(t.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestLogout(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)

	w = doJSON(r, http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", strings.TrimSpace(w.Body.String()))

	// The response clears the cookie.
	cleared := sessionCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, "/", cleared.Path)
	assert.Equal(t, -1, cleared.MaxAge)

	// The old session id no longer passes the gate.
	w = doJSON(r, http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_NoCookie(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Malformed session id.")
}

func TestMe(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/signup",
		`{"username":"alice","email":"a@x.com","password":"p1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var view domain.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))

	token, err := auth.GenerateToken(view.ID, "alice", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	w = doJSON(r, http.MethodGet, "/auth/me", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var me domain.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, view, me)

	w = doJSON(r, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestThings_RequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/things", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/things", `{"name":"widget"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestThings_CRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	token, err := auth.GenerateToken(uuid.NewString(), "alice", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	withToken := func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// create
	w := doJSON(r, http.MethodPost, "/api/things",
		`{"name":"widget","description":"a widget"}`, withToken)
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.ThingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "widget", created.Name)
	require.NotNil(t, created.Description)
	assert.Equal(t, "a widget", *created.Description)

	// list
	w = doJSON(r, http.MethodGet, "/api/things", "", withToken)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.ThingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// get one
	w = doJSON(r, http.MethodGet, "/api/things/"+created.ID, "", withToken)
	require.Equal(t, http.StatusOK, w.Code)

	// update
	w = doJSON(r, http.MethodPatch, "/api/things/"+created.ID,
		`{"name":"gadget"}`, withToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/things/"+created.ID, "", withToken)
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.ThingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "gadget", updated.Name)

	// delete
	w = doJSON(r, http.MethodDelete, "/api/things/"+created.ID, "", withToken)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, "/api/things/"+created.ID, "", withToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Thing does not exist.")
}

func TestThings_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	token, err := auth.GenerateToken(uuid.NewString(), "alice", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	withToken := func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := doJSON(r, http.MethodGet, "/api/things/"+uuid.NewString(), "", withToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/things/not-a-uuid", "", withToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
