package v1

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdnguyen/auth-service/internal/core/domain"
	"github.com/tdnguyen/auth-service/internal/core/memstore"
)

func newAuthService(store domain.Store, ttl time.Duration) *AuthService {
	creds := NewCredentialService(store.Credentials())
	sessions := NewSessionService(store.Sessions(), ttl)
	return NewAuthService(store, creds, sessions)
}

func signupReq(username string) domain.SignupRequest {
	return domain.SignupRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "p1",
	}
}

func TestSignup_CreatesUserCredentialAndSession(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := newAuthService(store, time.Hour)
	ctx := context.Background()

	session, err := svc.Signup(ctx, signupReq("alice"))
	require.NoError(t, err)

	assert.NotEqual(t, "", session.ID.String())
	assert.Equal(t, "alice", session.User.Username)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.True(t, session.ExpireDate.After(time.Now()))

	// The session is immediately live.
	found, err := store.Sessions().FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, session.User.ID, found.User.ID)

	// The credential verifies the signup password.
	creds := NewCredentialService(store.Credentials())
	valid, err := creds.Validate(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := newAuthService(store, time.Hour)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupReq("alice"))
	require.NoError(t, err)

	_, err = svc.Signup(ctx, signupReq("alice"))
	assert.ErrorIs(t, err, ErrUserExists)

	// Exactly one user remains; the failing call left nothing behind.
	users, err := store.Users().FindAll(ctx, domain.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

// dupRaceStore simulates losing the signup race: the fast-path existence
// check sees nothing, but the insert hits the unique index.
type dupRaceStore struct {
	*memstore.Store
}

func (s dupRaceStore) Users() domain.UserRepository {
	return raceUsers{s.Store.Users()}
}

func (s dupRaceStore) WithTx(ctx context.Context, fn func(r domain.RepositorySet) error) error {
	return fn(s)
}

type raceUsers struct {
	domain.UserRepository
}

func (raceUsers) FindOne(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	return nil, nil
}

func (raceUsers) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return nil, domain.ErrDuplicateKey
}

func TestSignup_RaceResolvedByUniqueIndex(t *testing.T) {
	t.Parallel()
	store := dupRaceStore{memstore.New()}
	svc := newAuthService(store, time.Hour)

	_, err := svc.Signup(context.Background(), signupReq("alice"))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := newAuthService(store, time.Hour)
	ctx := context.Background()

	first, err := svc.Signup(ctx, signupReq("alice"))
	require.NoError(t, err)

	session, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "p1"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, session.User.ID)
	assert.NotEqual(t, first.ID, session.ID, "login opens a new session")
}

func TestLogin_UniformFailure(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := newAuthService(store, time.Hour)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupReq("alice"))
	require.NoError(t, err)

	// Wrong password and unknown username fail identically.
	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "nobody", Password: "p1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_DeletesAllSessions(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := newAuthService(store, time.Hour)
	ctx := context.Background()

	session, err := svc.Signup(ctx, signupReq("alice"))
	require.NoError(t, err)
	second, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "p1"})
	require.NoError(t, err)

	ok, err := svc.Logout(ctx, session.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, id := range []string{session.ID.String(), second.ID.String()} {
		found, err := store.Sessions().FindByID(ctx, uuidMustParse(t, id))
		require.NoError(t, err)
		assert.Nil(t, found, "session %s should be gone", id)
	}

	// Nothing left to delete.
	ok, err = svc.Logout(ctx, session.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialService_Validate(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	ctx := context.Background()

	user, err := store.Users().Create(ctx, &domain.User{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	creds := NewCredentialService(store.Credentials())
	require.NoError(t, creds.Create(ctx, user, "p1"))

	valid, err := creds.Validate(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = creds.Validate(ctx, "alice", "p1x")
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = creds.Validate(ctx, "missing", "p1")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestCredentialService_Update(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	ctx := context.Background()

	user, err := store.Users().Create(ctx, &domain.User{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	creds := NewCredentialService(store.Credentials())
	require.NoError(t, creds.Create(ctx, user, "old"))

	affected, err := creds.Update(ctx, user.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	valid, err := creds.Validate(ctx, "alice", "new")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = creds.Validate(ctx, "alice", "old")
	require.NoError(t, err)
	assert.False(t, valid)

	// No credential row for an unknown user.
	other, err := store.Users().Create(ctx, &domain.User{Username: "bob", Email: "b@x.com"})
	require.NoError(t, err)
	affected, err = creds.Update(ctx, other.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
